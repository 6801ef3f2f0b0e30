package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actions recorded in the activity feed.
const (
	ActionRegistered    = "registered"
	ActionLoggedIn      = "logged_in"
	ActionTodoCreated   = "todo_created"
	ActionTodoUpdated   = "todo_updated"
	ActionTodoCompleted = "todo_completed"
	ActionTodoReopened  = "todo_reopened"
	ActionTodoDeleted   = "todo_deleted"
)

// Activity is one event in a user's activity feed, stored in MongoDB.
type Activity struct {
	ID        primitive.ObjectID `json:"id"                 bson:"_id,omitempty"`
	UserID    string             `json:"user_id"            bson:"user_id"`
	Action    string             `json:"action"             bson:"action"`
	TodoID    string             `json:"todo_id,omitempty"  bson:"todo_id,omitempty"`
	Title     string             `json:"title,omitempty"    bson:"title,omitempty"`
	CreatedAt time.Time          `json:"created_at"         bson:"created_at"`
}
