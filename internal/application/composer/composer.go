// Package composer maps content-change events to notification payloads.
// Compose is pure and total: it performs no I/O, never fails, and every
// missing optional field degrades to a documented default.
package composer

import (
	"fmt"

	"github.com/community-notify/internal/domain"
)

// fallbackBody is used when the changed entity has no title or name.
const fallbackBody = "Open the site to see what's new."

var nouns = map[string]string{
	domain.EntityNews:          "News",
	domain.EntityEvent:         "Event",
	domain.EntityAdvertisement: "Advertisement",
	domain.EntityPolicy:        "Policy",
}

var verbs = map[string]string{
	domain.ActionCreate: "published",
	domain.ActionUpdate: "updated",
	domain.ActionDelete: "removed",
}

var routes = map[string]string{
	domain.EntityNews:          "/news/",
	domain.EntityEvent:         "/events/",
	domain.EntityAdvertisement: "/ads/",
	domain.EntityPolicy:        "/policies/",
}

// Compose derives the single display payload shared by every recipient
// of one fan-out.
func Compose(ev domain.ContentChangeEvent) domain.NotificationPayload {
	return domain.NotificationPayload{
		Title:     title(ev),
		Body:      body(ev.Entity),
		Icon:      ev.Entity.Image,
		Image:     ev.Entity.Image,
		TargetURL: targetURL(ev),
		Tag:       fmt.Sprintf("%s-%s-%s", ev.EntityType, ev.Action, entityID(ev.Entity)),
	}
}

func title(ev domain.ContentChangeEvent) string {
	noun, ok := nouns[ev.EntityType]
	if !ok {
		noun = capitalize(ev.EntityType)
	}
	verb, ok := verbs[ev.Action]
	if !ok {
		// Unknown actions read like refreshes; totality over strictness.
		verb = "updated"
	}
	return noun + " " + verb
}

func body(e domain.EntitySnapshot) string {
	switch {
	case e.Title != "":
		return e.Title
	case e.Name != "":
		return e.Name
	default:
		return fallbackBody
	}
}

// targetURL resolves the per-entity-type route. Unknown entity types
// route to the site root; a known type without slug or id routes to its
// section listing.
func targetURL(ev domain.ContentChangeEvent) string {
	prefix, ok := routes[ev.EntityType]
	if !ok {
		return "/"
	}
	switch {
	case ev.Entity.Slug != "":
		return prefix + ev.Entity.Slug
	case ev.Entity.ID != "":
		return prefix + ev.Entity.ID
	default:
		return prefix[:len(prefix)-1]
	}
}

// entityID keeps the dedupe tag well formed: id, then slug, then a
// fixed marker.
func entityID(e domain.EntitySnapshot) string {
	switch {
	case e.ID != "":
		return e.ID
	case e.Slug != "":
		return e.Slug
	default:
		return "unknown"
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Update"
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
