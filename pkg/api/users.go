package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// statusTimeout bounds online-status updates so a dead backend can never
// hang a logout.
const statusTimeout = 10 * time.Second

// Notification is one entry in the user's notification feed.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type notificationFeed struct {
	Unread []Notification `json:"unReadNotifs"`
	All    []Notification `json:"notifications"`
}

// SetOnlineStatus reports presence. The timestamp guards against replays.
// Errors are always returned; on the logout path the caller treats them as
// best-effort, on the login path they are surfaced.
func (c *Client) SetOnlineStatus(ctx context.Context, bearer, userID string, online bool) error {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	env, err := c.do(ctx, "set_online_status", http.MethodPost, "/api/users/user/status", bearer, map[string]any{
		"userID":    userID,
		"isOnline":  online,
		"timestamp": time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("set online status", env)
	}
	return nil
}

// FetchNotifications returns the user's unread notifications.
func (c *Client) FetchNotifications(ctx context.Context, bearer, userID string) ([]Notification, error) {
	env, err := c.do(ctx, "fetch_notifications", http.MethodGet, "/api/users/"+userID+"/notifications", bearer, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, opErr("fetch notifications", env)
	}
	var feed notificationFeed
	if err := json.Unmarshal(env.Data, &feed); err != nil {
		return nil, err
	}
	return feed.Unread, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, bearer, userID, notificationID string) error {
	env, err := c.do(ctx, "mark_notification_read", http.MethodPatch,
		"/api/users/"+userID+"/notifications/"+notificationID, bearer, map[string]any{"read": true})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("mark notification read", env)
	}
	return nil
}

// ToggleFavorite adds or removes a post from the user's saved ads and
// returns the updated saved list.
func (c *Client) ToggleFavorite(ctx context.Context, bearer, userID, postID string) ([]string, error) {
	env, err := c.do(ctx, "toggle_favorite", http.MethodPost, "/api/favorites/toggle", bearer, map[string]any{
		"userID": userID,
		"postID": postID,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, opErr("toggle favorite", env)
	}
	var saved struct {
		AdsSaved []string `json:"adsSaved"`
	}
	if err := json.Unmarshal(env.Data, &saved); err != nil {
		return nil, err
	}
	return saved.AdsSaved, nil
}

// FetchPaymentInfo returns the user's payment records.
func (c *Client) FetchPaymentInfo(ctx context.Context, bearer, userID string) (json.RawMessage, error) {
	env, err := c.do(ctx, "fetch_payment_info", http.MethodGet, "/api/payments/collect/"+userID, bearer, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, opErr("fetch payment info", env)
	}
	return env.Data, nil
}
