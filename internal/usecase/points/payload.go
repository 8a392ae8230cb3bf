package points

import (
	"encoding/json"
	"fmt"
	"strings"

	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/errs"
)

// CanonicalEvent is the normalized form of one inbound completion event,
// whichever payload shape delivered it.
type CanonicalEvent struct {
	ExternalEventID string
	TagRaw          string
	TagNormalized   string
	ContactID       string
	Email           string
	CreatedAtRaw    string
}

// parseCompletionPayload tries the flat event shape first, then the
// resource-graph shape. Neither matching is a validation failure.
func parseCompletionPayload(raw []byte) (CanonicalEvent, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return CanonicalEvent{}, errs.Wrap(domainpoints.ErrPayloadInvalid, "parse payload json")
	}

	if event, ok := parseFlatEvent(root); ok {
		return event, nil
	}
	if event, ok := parseResourceGraphEvent(root); ok {
		return event, nil
	}
	return CanonicalEvent{}, domainpoints.ErrPayloadInvalid
}

// Flat shape:
//
//	{"event_id": "...", "created_at": "...",
//	 "contact": {"id": "...", "email": "..."},
//	 "tag": {"name": "..."}}
func parseFlatEvent(root map[string]any) (CanonicalEvent, bool) {
	contact := mapField(root, "contact")
	tag := mapField(root, "tag")
	if contact == nil || tag == nil {
		return CanonicalEvent{}, false
	}

	event := CanonicalEvent{
		ExternalEventID: firstNonEmpty(stringField(root, "event_id"), stringField(root, "id")),
		TagRaw:          stringField(tag, "name"),
		ContactID:       stringField(contact, "id"),
		Email:           strings.ToLower(stringField(contact, "email")),
		CreatedAtRaw:    stringField(root, "created_at"),
	}
	return finishCanonicalEvent(event)
}

// Resource-graph shape: the primary object under "data" references contact
// and tag resources carried in the "included" array, cross-referenced by
// resource type.
//
//	{"data": {"id": "...", "type": "tag_event",
//	          "attributes": {"created_at": "..."}},
//	 "included": [{"type": "contacts", "id": "...",
//	               "attributes": {"email": "..."}},
//	              {"type": "tags", "attributes": {"name": "..."}}]}
func parseResourceGraphEvent(root map[string]any) (CanonicalEvent, bool) {
	data := mapField(root, "data")
	if data == nil {
		return CanonicalEvent{}, false
	}

	included, _ := root["included"].([]any)
	contact := includedResource(included, "contact", "contacts")
	tag := includedResource(included, "tag", "tags")
	if tag == nil {
		return CanonicalEvent{}, false
	}

	event := CanonicalEvent{
		ExternalEventID: stringField(data, "id"),
		TagRaw:          stringField(mapField(tag, "attributes"), "name"),
		CreatedAtRaw:    stringField(mapField(data, "attributes"), "created_at"),
	}
	if contact != nil {
		event.ContactID = stringField(contact, "id")
		event.Email = strings.ToLower(stringField(mapField(contact, "attributes"), "email"))
	}
	return finishCanonicalEvent(event)
}

// finishCanonicalEvent enforces the shared required fields: an event id, a
// tag name, and at least one of contact id / email.
func finishCanonicalEvent(event CanonicalEvent) (CanonicalEvent, bool) {
	event.TagNormalized = domainpoints.NormalizeTag(event.TagRaw)
	if event.ExternalEventID == "" || event.TagNormalized == "" {
		return CanonicalEvent{}, false
	}
	if event.ContactID == "" && event.Email == "" {
		return CanonicalEvent{}, false
	}
	return event, true
}

func includedResource(included []any, types ...string) map[string]any {
	for _, raw := range included {
		resource, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		resourceType := strings.ToLower(stringField(resource, "type"))
		for _, want := range types {
			if resourceType == want {
				return resource
			}
		}
	}
	return nil
}

func mapField(root map[string]any, key string) map[string]any {
	if root == nil {
		return nil
	}
	raw, ok := root[key]
	if !ok || raw == nil {
		return nil
	}
	out, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return out
}

func stringField(root map[string]any, key string) string {
	if root == nil {
		return ""
	}
	raw, ok := root[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", raw))
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
