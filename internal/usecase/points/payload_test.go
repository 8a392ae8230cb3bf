package points

import (
	"errors"
	"testing"

	domainpoints "edupoints/internal/domain/points"
)

func TestParseCompletionPayloadFlatShape(t *testing.T) {
	raw := []byte(`{
  "event_id": "evt-100",
  "created_at": "2026-08-25T11:58:00Z",
  "contact": {"id": "contact-7", "email": "Pat@Example.ORG"},
  "tag": {"name": "  Completed-Foundations  "}
}`)

	event, err := parseCompletionPayload(raw)
	if err != nil {
		t.Fatalf("parseCompletionPayload() error = %v", err)
	}
	if event.ExternalEventID != "evt-100" {
		t.Fatalf("event id = %q", event.ExternalEventID)
	}
	if event.TagNormalized != "completed-foundations" {
		t.Fatalf("tag = %q, want completed-foundations", event.TagNormalized)
	}
	if event.ContactID != "contact-7" {
		t.Fatalf("contact id = %q", event.ContactID)
	}
	if event.Email != "pat@example.org" {
		t.Fatalf("email = %q, want lowercased", event.Email)
	}
	if event.CreatedAtRaw != "2026-08-25T11:58:00Z" {
		t.Fatalf("created at = %q", event.CreatedAtRaw)
	}
}

func TestParseCompletionPayloadFlatShapeNumericID(t *testing.T) {
	raw := []byte(`{
  "id": 4100,
  "contact": {"id": 88, "email": "pat@example.org"},
  "tag": {"name": "completed-foundations"}
}`)

	event, err := parseCompletionPayload(raw)
	if err != nil {
		t.Fatalf("parseCompletionPayload() error = %v", err)
	}
	if event.ExternalEventID != "4100" {
		t.Fatalf("event id = %q, want 4100", event.ExternalEventID)
	}
	if event.ContactID != "88" {
		t.Fatalf("contact id = %q, want 88", event.ContactID)
	}
	if event.CreatedAtRaw != "" {
		t.Fatalf("created at = %q, want empty", event.CreatedAtRaw)
	}
}

func TestParseCompletionPayloadResourceGraphShape(t *testing.T) {
	raw := []byte(`{
  "data": {"id": "evt-200", "type": "tag_event", "attributes": {"created_at": "2026-08-25T11:59:00Z"}},
  "included": [
    {"type": "Contacts", "id": "contact-9", "attributes": {"email": "Kim@Example.org"}},
    {"type": "tags", "attributes": {"name": "Completed-Data-Literacy"}}
  ]
}`)

	event, err := parseCompletionPayload(raw)
	if err != nil {
		t.Fatalf("parseCompletionPayload() error = %v", err)
	}
	if event.ExternalEventID != "evt-200" {
		t.Fatalf("event id = %q", event.ExternalEventID)
	}
	if event.TagNormalized != "completed-data-literacy" {
		t.Fatalf("tag = %q", event.TagNormalized)
	}
	if event.ContactID != "contact-9" {
		t.Fatalf("contact id = %q", event.ContactID)
	}
	if event.Email != "kim@example.org" {
		t.Fatalf("email = %q", event.Email)
	}
}

func TestParseCompletionPayloadGraphShapeEmailOnlyContact(t *testing.T) {
	raw := []byte(`{
  "data": {"id": "evt-201", "attributes": {}},
  "included": [
    {"type": "contact", "attributes": {"email": "solo@example.org"}},
    {"type": "tag", "attributes": {"name": "completed-foundations"}}
  ]
}`)

	event, err := parseCompletionPayload(raw)
	if err != nil {
		t.Fatalf("parseCompletionPayload() error = %v", err)
	}
	if event.ContactID != "" {
		t.Fatalf("contact id = %q, want empty", event.ContactID)
	}
	if event.Email != "solo@example.org" {
		t.Fatalf("email = %q", event.Email)
	}
}

func TestParseCompletionPayloadInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `garbage`},
		{name: "empty object", raw: `{}`},
		{name: "flat without tag", raw: `{"event_id": "e", "contact": {"id": "c"}}`},
		{name: "flat without identity", raw: `{"event_id": "e", "contact": {}, "tag": {"name": "completed-foundations"}}`},
		{name: "flat without event id", raw: `{"contact": {"id": "c"}, "tag": {"name": "completed-foundations"}}`},
		{name: "graph without tag resource", raw: `{"data": {"id": "e"}, "included": [{"type": "contacts", "id": "c"}]}`},
		{name: "graph without identity", raw: `{"data": {"id": "e"}, "included": [{"type": "tags", "attributes": {"name": "completed-foundations"}}]}`},
	}

	for _, tc := range cases {
		if _, err := parseCompletionPayload([]byte(tc.raw)); !errors.Is(err, domainpoints.ErrPayloadInvalid) {
			t.Fatalf("%s: error = %v, want ErrPayloadInvalid", tc.name, err)
		}
	}
}
