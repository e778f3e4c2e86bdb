package reviewapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/jpalmerr/reviewq/internal/poller"
)

// FeedbackWindow is how far back [Client.Feedbacks] looks.
const FeedbackWindow = 30 * 24 * time.Hour

// Submission is an assigned submission.
type Submission struct {
	ID          int
	ProjectID   int
	ProjectName string
	AssignedAt  time.Time
}

// Certification is a project the reviewer is certified to review.
type Certification struct {
	ProjectID   int    `yaml:"id" json:"id"`
	ProjectName string `yaml:"name" json:"name"`
}

type projectRef struct {
	Name string `json:"name"`
}

type submissionDTO struct {
	ID         int        `json:"id"`
	ProjectID  int        `json:"project_id"`
	Project    projectRef `json:"project"`
	AssignedAt time.Time  `json:"assigned_at"`
}

type feedbackDTO struct {
	ID           int        `json:"id"`
	Rating       int        `json:"rating"`
	ReadAt       *time.Time `json:"read_at"`
	Project      projectRef `json:"project"`
	SubmissionID int        `json:"submission_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

type certificationDTO struct {
	Status    string     `json:"status"`
	ProjectID int        `json:"project_id"`
	Project   projectRef `json:"project"`
}

// Assigned lists the reviewer's currently assigned submissions.
func (c *Client) Assigned(ctx context.Context) ([]Submission, error) {
	var dtos []submissionDTO
	if err := c.getJSON(ctx, "assigned", "/me/submissions/assigned", nil, &dtos); err != nil {
		return nil, err
	}

	subs := make([]Submission, 0, len(dtos))
	for _, d := range dtos {
		subs = append(subs, Submission{
			ID:          d.ID,
			ProjectID:   d.ProjectID,
			ProjectName: d.Project.Name,
			AssignedAt:  d.AssignedAt,
		})
	}
	return subs, nil
}

// AssignedCount implements [poller.AssignedCounter].
func (c *Client) AssignedCount(ctx context.Context) (int, error) {
	var items []json.RawMessage
	if err := c.getJSON(ctx, "assigned", "/me/submissions/assigned", nil, &items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// RequestAssignment implements [poller.AssignmentRequester].
//
// Every HTTP status is returned in the response without an error; only
// transport failures do. A 201 whose body cannot be decoded still counts.
func (c *Client) RequestAssignment(ctx context.Context, projectID int) (poller.AssignResponse, error) {
	path := fmt.Sprintf("/projects/%d/submissions/assign", projectID)
	resp, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return poller.AssignResponse{}, fmt.Errorf("assign project %d: %w", projectID, err)
	}

	out := poller.AssignResponse{StatusCode: resp.statusCode}
	if resp.statusCode != http.StatusCreated {
		return out, nil
	}

	var sub submissionDTO
	if err := json.Unmarshal(resp.body, &sub); err != nil {
		// the assignment happened even if we cannot read its details
		c.logger.Warn("undecodable assignment body", "project_id", projectID, "error", err)
		return out, nil
	}
	out.SubmissionID = sub.ID
	out.ProjectName = sub.Project.Name
	return out, nil
}

// Feedbacks implements [poller.FeedbackSource], returning feedback created
// within [FeedbackWindow].
func (c *Client) Feedbacks(ctx context.Context) ([]poller.Feedback, error) {
	q := url.Values{}
	q.Set("start_date", c.now().Add(-FeedbackWindow).UTC().Format(time.RFC3339))

	var dtos []feedbackDTO
	if err := c.getJSON(ctx, "feedbacks", "/me/student_feedbacks", q, &dtos); err != nil {
		return nil, err
	}

	out := make([]poller.Feedback, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, poller.Feedback{
			ID:           d.ID,
			Read:         d.ReadAt != nil,
			Rating:       d.Rating,
			ProjectName:  d.Project.Name,
			SubmissionID: d.SubmissionID,
			CreatedAt:    d.CreatedAt,
		})
	}
	return out, nil
}

// Certifications lists projects with status "certified", sorted by id.
func (c *Client) Certifications(ctx context.Context) ([]Certification, error) {
	var dtos []certificationDTO
	if err := c.getJSON(ctx, "certifications", "/me/certifications", nil, &dtos); err != nil {
		return nil, err
	}

	var out []Certification
	for _, d := range dtos {
		if d.Status != "certified" {
			continue
		}
		out = append(out, Certification{ProjectID: d.ProjectID, ProjectName: d.Project.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

var _ poller.Service = (*Client)(nil)
