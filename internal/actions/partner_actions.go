package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/matheus3301/mailmirror/internal/store"
)

// SearchPartners finds partners matching a keyword, local records first,
// completed by a remote search when the local matches leave room under the
// limit. Remote results are inserted into the store.
func (o *Orchestrator) SearchPartners(ctx context.Context, keyword string, limit int) ([]store.Partner, error) {
	needle := strings.ToLower(keyword)
	var local []store.Partner
	for _, p := range o.store.Partners() {
		if p.ID == store.BotPartnerID {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.DisplayName), needle) {
			local = append(local, p)
		}
	}
	sort.Slice(local, func(i, j int) bool { return local[i].ID < local[j].ID })
	if len(local) >= limit {
		return local[:limit], nil
	}

	raw, err := o.rpc.Call(ctx, Request{
		Model:  "res.partner",
		Method: "im_search",
		Args:   []any{keyword, limit - len(local)},
		Shadow: true,
	})
	if err != nil {
		return local, fmt.Errorf("searching partners %q: %w", keyword, err)
	}
	var found []store.PartnerData
	if err := json.Unmarshal(raw, &found); err != nil {
		return local, fmt.Errorf("decoding partner search: %w", err)
	}
	for _, data := range found {
		id := o.store.InsertPartner(data)
		if p, ok := o.store.Partner(id); ok && !containsPartner(local, p.ID) {
			local = append(local, p)
		}
	}
	return local, nil
}

func containsPartner(list []store.Partner, id float64) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}

// CheckPartnerIsUser resolves whether a partner has a backend user account,
// caching the answer on the partner record.
func (o *Orchestrator) CheckPartnerIsUser(ctx context.Context, partnerID store.LocalID) (bool, error) {
	p, ok := o.store.Partner(partnerID)
	if !ok {
		return false, fmt.Errorf("checking user: unknown partner %s", partnerID)
	}
	if p.UserChecked {
		return p.UserID != 0, nil
	}
	raw, err := o.rpc.Call(ctx, Request{
		Model:  "res.users",
		Method: "search",
		Args:   []any{store.Filter{{Field: "partner_id", Op: "=", Value: p.ID}}},
		Shadow: true,
	})
	if err != nil {
		return false, fmt.Errorf("checking user of partner %v: %w", p.ID, err)
	}
	var userIDs []float64
	if err := json.Unmarshal(raw, &userIDs); err != nil {
		return false, fmt.Errorf("decoding user search: %w", err)
	}
	var userID float64
	if len(userIDs) > 0 {
		userID = userIDs[0]
	}
	o.store.SetPartnerUser(partnerID, userID)
	return userID != 0, nil
}

// HandleUserConnection reacts to a "user came online" push by making sure
// the partner exists and opening a chat with them.
func (o *Orchestrator) HandleUserConnection(ctx context.Context, partnerID float64, name string) error {
	o.store.InsertPartner(store.PartnerData{ID: partnerID, Name: name})
	_, err := o.CreateChat(ctx, partnerID)
	return err
}
