package nutshell

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"leadsync_backend/platform/cache"
)

const (
	usersCacheKey        = "nutshell:users"
	stagesetsCacheKey    = "nutshell:stagesets"
	customFieldsCacheKey = "nutshell:lead-custom-fields"
)

// Users lists CRM users, served from a cache that expires after the users TTL.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	users, _, err := cache.GetOrRefresh(ctx, c.cache, usersCacheKey, c.usersTTL, c.fetchUsers)
	return users, err
}

// RefreshUsers refetches the user list.
func (c *Client) RefreshUsers(ctx context.Context) ([]User, error) {
	return cache.Refresh(ctx, c.cache, usersCacheKey, c.usersTTL, c.fetchUsers)
}

func (c *Client) fetchUsers(ctx context.Context) ([]User, error) {
	var data struct {
		Users []rawUser `json:"users"`
	}
	if err := decodeData(c.Do(ctx, http.MethodGet, "users", nil), "nutshell.Users", &data); err != nil {
		return nil, err
	}
	users := make([]User, 0, len(data.Users))
	for _, u := range data.Users {
		users = append(users, u.user())
	}
	return users, nil
}

// FindUserByEmail returns the id of the user holding email. A miss against a
// cached list triggers one refresh before giving up.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (string, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", false, nil
	}
	users, fromCache, err := cache.GetOrRefresh(ctx, c.cache, usersCacheKey, c.usersTTL, c.fetchUsers)
	if err != nil {
		return "", false, err
	}
	if id, ok := userByEmail(users, email); ok {
		return id, true, nil
	}
	if !fromCache || len(users) == 0 {
		return "", false, nil
	}

	c.log.Debug("nutshell: user not in cache, refreshing", "users", len(users))
	users, err = c.RefreshUsers(ctx)
	if err != nil {
		return "", false, err
	}
	id, ok := userByEmail(users, email)
	return id, ok, nil
}

func userByEmail(users []User, email string) (string, bool) {
	for _, u := range users {
		if u.ID != "" && u.HasEmail(email) {
			return u.ID.String(), true
		}
	}
	return "", false
}

// Stagesets lists pipelines. The list is cached without expiry and refreshed
// when a lookup misses.
func (c *Client) Stagesets(ctx context.Context) ([]Stageset, error) {
	sets, _, err := cache.GetOrRefresh(ctx, c.cache, stagesetsCacheKey, 0, c.fetchStagesets)
	return sets, err
}

// RefreshStagesets refetches the pipeline list.
func (c *Client) RefreshStagesets(ctx context.Context) ([]Stageset, error) {
	return cache.Refresh(ctx, c.cache, stagesetsCacheKey, 0, c.fetchStagesets)
}

func (c *Client) fetchStagesets(ctx context.Context) ([]Stageset, error) {
	resp := c.Do(ctx, http.MethodGet, "stagesets", nil)
	if err := resp.Err("nutshell.Stagesets"); err != nil {
		return nil, err
	}
	return parseStagesets(resp.Data), nil
}

// FindStagesetByID looks a pipeline up by id, refreshing a non-empty cached
// list once on a miss.
func (c *Client) FindStagesetByID(ctx context.Context, id string) (Stageset, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Stageset{}, false, nil
	}
	return c.findStageset(ctx, func(s Stageset) bool { return s.ID.String() == id })
}

// FindStagesetByName returns the single pipeline whose name matches
// case-insensitively. Ambiguous names are a miss.
func (c *Client) FindStagesetByName(ctx context.Context, name string) (Stageset, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Stageset{}, false, nil
	}
	sets, err := c.Stagesets(ctx)
	if err != nil {
		return Stageset{}, false, err
	}
	var match Stageset
	count := 0
	for _, s := range sets {
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			match = s
			count++
		}
	}
	if count != 1 {
		if count > 1 {
			c.log.Info("nutshell: stageset name is ambiguous", "name", name, "matches", count)
		}
		return Stageset{}, false, nil
	}
	return match, true, nil
}

func (c *Client) findStageset(ctx context.Context, match func(Stageset) bool) (Stageset, bool, error) {
	sets, fromCache, err := cache.GetOrRefresh(ctx, c.cache, stagesetsCacheKey, 0, c.fetchStagesets)
	if err != nil {
		return Stageset{}, false, err
	}
	for _, s := range sets {
		if match(s) {
			return s, true, nil
		}
	}
	if !fromCache || len(sets) == 0 {
		return Stageset{}, false, nil
	}
	sets, err = c.RefreshStagesets(ctx)
	if err != nil {
		return Stageset{}, false, err
	}
	for _, s := range sets {
		if match(s) {
			return s, true, nil
		}
	}
	return Stageset{}, false, nil
}

type rawStageset struct {
	ID       ID     `json:"id"`
	AltID    ID     `json:"_id"`
	Name     string `json:"name"`
	AltTitle string `json:"title"`
}

func (r rawStageset) stageset() Stageset {
	s := Stageset{ID: r.ID, Name: r.Name}
	if s.ID == "" {
		s.ID = r.AltID
	}
	if s.Name == "" {
		s.Name = r.AltTitle
	}
	return s
}

// parseStagesets accepts the shapes the stagesets endpoint has been seen to
// return: {"stagesets": [...]}, {"stageSets": [...]}, a bare array, or an
// object whose first array value looks like a list of stagesets.
func parseStagesets(data json.RawMessage) []Stageset {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '[' {
		return decodeStagesetList(data)
	}

	fields, err := orderedObject(data)
	if err != nil {
		return nil
	}
	for _, key := range []string{"stagesets", "stageSets"} {
		for _, f := range fields {
			if f.key == key {
				if sets := decodeStagesetList(f.value); len(sets) > 0 {
					return sets
				}
			}
		}
	}
	for _, f := range fields {
		if f.key == "meta" {
			continue
		}
		var probe []map[string]json.RawMessage
		if err := json.Unmarshal(f.value, &probe); err != nil || len(probe) == 0 {
			continue
		}
		_, hasID := probe[0]["id"]
		_, hasName := probe[0]["name"]
		if hasID && hasName {
			return decodeStagesetList(f.value)
		}
	}
	return nil
}

func decodeStagesetList(data json.RawMessage) []Stageset {
	var raw []rawStageset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	sets := make([]Stageset, 0, len(raw))
	for _, r := range raw {
		if s := r.stageset(); s.ID != "" {
			sets = append(sets, s)
		}
	}
	return sets
}

type objectField struct {
	key   string
	value json.RawMessage
}

func orderedObject(data []byte) ([]objectField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var fields []objectField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, objectField{key: key, value: value})
	}
	return fields, nil
}

// LeadCustomFields returns the lead custom field catalog, cached without expiry.
func (c *Client) LeadCustomFields(ctx context.Context) ([]CustomField, error) {
	fields, _, err := cache.GetOrRefresh(ctx, c.cache, customFieldsCacheKey, 0, c.fetchCustomFields)
	return fields, err
}

// RefreshLeadCustomFields refetches the custom field catalog.
func (c *Client) RefreshLeadCustomFields(ctx context.Context) ([]CustomField, error) {
	return cache.Refresh(ctx, c.cache, customFieldsCacheKey, 0, c.fetchCustomFields)
}

func (c *Client) fetchCustomFields(ctx context.Context) ([]CustomField, error) {
	var data struct {
		CustomFields []CustomField `json:"customFields"`
	}
	resp := c.Do(ctx, http.MethodGet, "leads/customfields/attributes", nil)
	if err := decodeData(resp, "nutshell.LeadCustomFields", &data); err != nil {
		return nil, err
	}
	return data.CustomFields, nil
}

// Sources lists lead sources. Not cached.
func (c *Client) Sources(ctx context.Context) ([]Source, error) {
	var data struct {
		Sources []Source `json:"sources"`
	}
	if err := decodeData(c.Do(ctx, http.MethodGet, "sources", nil), "nutshell.Sources", &data); err != nil {
		return nil, err
	}
	return data.Sources, nil
}
