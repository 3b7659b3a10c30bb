package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Post is one classified ad as the dashboard sees it.
type Post struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userID"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Status    string          `json:"status"`
	Sold      bool            `json:"sold"`
	Views     int             `json:"views"`
	Clicks    int             `json:"clicks"`
	Shares    int             `json:"shares"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// FetchPost returns one post by id.
func (c *Client) FetchPost(ctx context.Context, postID string) (*Post, error) {
	env, err := c.do(ctx, "fetch_post", http.MethodGet, "/api/posts/"+postID, "", nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, opErr("fetch post", env)
	}
	var post Post
	if err := json.Unmarshal(env.Data, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost applies edits to the user's post.
func (c *Client) UpdatePost(ctx context.Context, bearer, postID, userID string, updated map[string]any) error {
	env, err := c.do(ctx, "update_post", http.MethodPut, "/api/posts/"+postID+"/update", bearer, map[string]any{
		"updatedData": updated,
		"userID":      userID,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("update post", env)
	}
	return nil
}

// DeletePost removes the user's post.
func (c *Client) DeletePost(ctx context.Context, bearer, postID, userID string) error {
	env, err := c.do(ctx, "delete_post", http.MethodDelete, "/api/posts/"+postID+"/delete", bearer, map[string]any{
		"userID": userID,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("delete post", env)
	}
	return nil
}

// MarkAsSold flags the post as sold.
func (c *Client) MarkAsSold(ctx context.Context, bearer, postID, userID string) error {
	env, err := c.do(ctx, "mark_as_sold", http.MethodPost, "/api/posts/"+postID+"/mark/sold", bearer, map[string]any{
		"userID": userID,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("mark as sold", env)
	}
	return nil
}

// ReportPost files an abuse report against a post.
func (c *Client) ReportPost(ctx context.Context, postID, userID, reason string) error {
	env, err := c.do(ctx, "report_post", http.MethodPost, "/api/posts/post/"+postID+"/report", "", map[string]any{
		"userID": userID,
		"reason": reason,
	})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr("report post", env)
	}
	return nil
}

// PostStats is the per-post engagement counters.
type PostStats struct {
	Views  int `json:"views"`
	Clicks int `json:"clicks"`
	Shares int `json:"shares"`
}

// FetchViewCount returns the view counter for a post.
func (c *Client) FetchViewCount(ctx context.Context, postID string) (int, error) {
	env, err := c.do(ctx, "fetch_view_count", http.MethodGet, "/api/do/get/view/"+postID, "", nil)
	if err != nil {
		return 0, err
	}
	if !env.Success {
		return 0, opErr("fetch view count", env)
	}
	var stats PostStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		return 0, err
	}
	return stats.Views, nil
}

// IncrementView bumps the view counter for a post.
func (c *Client) IncrementView(ctx context.Context, postID, userID string) error {
	return c.increment(ctx, "increment_view", "/api/do/increment/view/"+postID, userID)
}

// IncrementClick bumps the click counter for a post.
func (c *Client) IncrementClick(ctx context.Context, postID, userID string) error {
	return c.increment(ctx, "increment_click", "/api/do/increment/click/"+postID, userID)
}

// IncrementShare bumps the share counter for a post.
func (c *Client) IncrementShare(ctx context.Context, postID, userID string) error {
	return c.increment(ctx, "increment_share", "/api/do/increment/share/"+postID, userID)
}

func (c *Client) increment(ctx context.Context, op, path, userID string) error {
	env, err := c.do(ctx, op, http.MethodPost, path, "", map[string]any{"userID": userID})
	if err != nil {
		return err
	}
	if !env.Success {
		return opErr(op, env)
	}
	return nil
}
