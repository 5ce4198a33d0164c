package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonnyvector/send-buddy-sub000/matching"
)

// topMatchNotifications caps how many users get pinged per new trip.
const topMatchNotifications = 3

// TripCreatedEvent is what the trips service publishes when a user saves a
// new trip.
type TripCreatedEvent struct {
	TripID   string `json:"trip_id"`
	OwnerID  string `json:"owner_id"`
	IsActive bool   `json:"is_active"`
}

// MatchNotification is the payload the notification service turns into a
// popup. The recipient is the matched user; matched_user_id is the trip owner
// whose new trip triggered the match.
type MatchNotification struct {
	RecipientID     string `json:"recipient_id"`
	MatchedUserID   string `json:"matched_user_id"`
	TripID          string `json:"trip_id"`
	DestinationSlug string `json:"destination_slug"`
	DestinationName string `json:"destination_name"`
	Score           int    `json:"score"`
	Type            string `json:"notification_type"`
	Priority        string `json:"priority"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	ActionURL       string `json:"action_url"`
	CreatedAt       string `json:"created_at"`
}

// matchPublisher is the slice of the NATS client the notifier needs.
type matchPublisher interface {
	PublishMatchNotification(data []byte) error
}

// Notifier listens for new trips and tells the top matches about their new
// potential partner.
type Notifier struct {
	nats *NATSClient
	pub  matchPublisher
	svc  *matching.Service
	dir  matching.Directory
}

func NewNotifier(nc *NATSClient, svc *matching.Service, dir matching.Directory) *Notifier {
	return &Notifier{nats: nc, pub: nc, svc: svc, dir: dir}
}

// Start subscribes to trip-created events.
func (n *Notifier) Start() error {
	return n.nats.SubscribeTripCreated(func(data []byte) {
		var evt TripCreatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			log.Println("notifier: bad trip event:", err)
			return
		}
		n.HandleTripCreated(context.Background(), evt)
	})
}

// HandleTripCreated runs matching for a fresh trip and publishes one
// notification per top match, addressed to the matched user.
func (n *Notifier) HandleTripCreated(ctx context.Context, evt TripCreatedEvent) {
	if !evt.IsActive {
		return
	}
	ownerID, err := uuid.Parse(evt.OwnerID)
	if err != nil {
		log.Println("notifier: bad owner id in trip event:", err)
		return
	}
	tripID, err := uuid.Parse(evt.TripID)
	if err != nil {
		log.Println("notifier: bad trip id in trip event:", err)
		return
	}

	log.Printf("Processing new trip %s for notifications", tripID)

	trip, matches, err := n.svc.GetMatches(ctx, ownerID, tripID, topMatchNotifications)
	if err != nil {
		log.Println("notifier: matching failed for trip", tripID, ":", err)
		return
	}
	if len(matches) == 0 {
		log.Printf("No matches found for trip %s", tripID)
		return
	}

	owner, err := n.dir.ClimberByID(ctx, ownerID)
	if err != nil {
		log.Println("notifier: owner lookup failed for trip", tripID, ":", err)
		return
	}

	count := 0
	for _, m := range matches {
		payload := MatchNotification{
			RecipientID:     m.MatchedUser.ID,
			MatchedUserID:   owner.ID.String(),
			TripID:          trip.ID.String(),
			DestinationSlug: trip.Destination.Slug,
			DestinationName: trip.Destination.Name,
			Score:           m.Score,
			Type:            "new_match",
			Priority:        "critical",
			Title:           fmt.Sprintf("New Match: %s", owner.DisplayName),
			Message: fmt.Sprintf(
				"You've been matched with %s for your trip to %s! Match score: %d%%",
				owner.DisplayName, trip.Destination.Name, m.Score,
			),
			ActionURL: "/users/" + owner.ID.String(),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			log.Println("notifier: marshal failed:", err)
			continue
		}
		if err := n.pub.PublishMatchNotification(data); err != nil {
			log.Println("notifier: publish failed:", err)
			continue
		}
		notificationsPublished.Inc()
		count++
	}

	log.Printf("Published %d new_match notifications for trip %s", count, tripID)
}
