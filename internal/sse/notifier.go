package sse

import (
	"net/url"
	"slices"
	"strings"
)

// Entity is a kind of record shown on the dashboard.
type Entity string

const (
	EntityClient    Entity = "client"
	EntityProject   Entity = "project"
	EntityContent   Entity = "content"
	EntityJournal   Entity = "journal"
	EntityFramework Entity = "framework"
	EntityDashboard Entity = "dashboard"
)

// Action is what happened to the record.
type Action string

const (
	ActionCreated                Action = "created"
	ActionUpdated                Action = "updated"
	ActionDeleted                Action = "deleted"
	ActionMoved                  Action = "moved"
	ActionReindexed              Action = "reindexed"
	ActionQuestionnaireSaved     Action = "questionnaire_saved"
	ActionQuestionnaireSubmitted Action = "questionnaire_submitted"
)

// BulkAction names a bulk content operation, e.g. bulk_delete.
func BulkAction(op string) Action { return Action("bulk_" + op) }

// Change is the payload of every entity event. ClientID scopes the change to
// one client's dashboard; From and To carry the columns of a project move.
type Change struct {
	Entity   Entity   `json:"entity"`
	Action   Action   `json:"action"`
	ID       string   `json:"id,omitempty"`
	IDs      []string `json:"ids,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// Type is the SSE event name, e.g. project.moved.
func (c Change) Type() string { return string(c.Entity) + "." + string(c.Action) }

// Notifier is the part of Broker services use to announce changes.
type Notifier interface {
	Notify(Change)
}

// Nop discards every change.
var Nop Notifier = nopNotifier{}

type nopNotifier struct{}

func (nopNotifier) Notify(Change) {}

// Filter narrows a subscription. The zero value receives everything.
type Filter struct {
	ClientID string
	Entities []Entity
}

// FilterFromQuery reads ?client_id= and ?entity=project,content.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{ClientID: strings.TrimSpace(q.Get("client_id"))}
	for _, v := range q["entity"] {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				f.Entities = append(f.Entities, Entity(e))
			}
		}
	}
	return f
}

func (f Filter) wants(e Entity) bool {
	return len(f.Entities) == 0 || slices.Contains(f.Entities, e)
}

// match reports whether c belongs on this subscriber's stream. Changes with no
// client, such as frameworks, only reach unscoped subscribers.
func (f Filter) match(c Change) bool {
	if !f.wants(c.Entity) {
		return false
	}
	return f.ClientID == "" || f.ClientID == c.ClientID
}
