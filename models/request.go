package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// RequestCategory enum
type RequestCategory string

const (
	CategoryRoadMaintenance RequestCategory = "road_maintenance"
	CategoryStreetLighting  RequestCategory = "street_lighting"
	CategoryTrafficSignals  RequestCategory = "traffic_signals"
	CategoryParkMaintenance RequestCategory = "park_maintenance"
	CategoryWasteManagement RequestCategory = "waste_management"
	CategoryWaterSewer      RequestCategory = "water_sewer"
	CategoryNoiseComplaint  RequestCategory = "noise_complaint"
	CategoryParkingIssue    RequestCategory = "parking_issue"
	CategoryOther           RequestCategory = "other"
)

// Categories lists every category in display order.
var Categories = []RequestCategory{
	CategoryRoadMaintenance,
	CategoryStreetLighting,
	CategoryTrafficSignals,
	CategoryParkMaintenance,
	CategoryWasteManagement,
	CategoryWaterSewer,
	CategoryNoiseComplaint,
	CategoryParkingIssue,
	CategoryOther,
}

func (c RequestCategory) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// RequestStatus enum
type RequestStatus string

const (
	StatusSubmitted   RequestStatus = "submitted"
	StatusUnderReview RequestStatus = "under_review"
	StatusAssigned    RequestStatus = "assigned"
	StatusInProgress  RequestStatus = "in_progress"
	StatusCompleted   RequestStatus = "completed"
	StatusRejected    RequestStatus = "rejected"
	StatusClosed      RequestStatus = "closed"
)

var Statuses = []RequestStatus{
	StatusSubmitted,
	StatusUnderReview,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusClosed,
}

// OpenStatuses are the statuses still waiting on staff action.
var OpenStatuses = []RequestStatus{StatusSubmitted, StatusUnderReview, StatusAssigned, StatusInProgress}

func (s RequestStatus) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// RequestPriority enum
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

var Priorities = []RequestPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p RequestPriority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// ParseStatus converts a wire literal into a RequestStatus.
func ParseStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
	}
	return st, nil
}

// ParseCategory converts a wire literal into a RequestCategory.
func ParseCategory(s string) (RequestCategory, error) {
	c := RequestCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
	}
	return c, nil
}

// ParsePriority converts a wire literal into a RequestPriority.
func ParsePriority(s string) (RequestPriority, error) {
	p := RequestPriority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, s)
	}
	return p, nil
}

// ServiceRequest represents a service request submitted by a citizen
type ServiceRequest struct {
	ID          int64           `bson:"_id" json:"id"`
	Title       string          `bson:"title" json:"title"`
	Description string          `bson:"description" json:"description"`
	Category    RequestCategory `bson:"category" json:"category"`
	Priority    RequestPriority `bson:"priority" json:"priority"`
	Status      RequestStatus   `bson:"status" json:"status"`

	Latitude  *float64 `bson:"latitude" json:"latitude"`
	Longitude *float64 `bson:"longitude" json:"longitude"`
	Address   *string  `bson:"address" json:"address"`

	IsAnonymous     bool   `bson:"isAnonymous" json:"is_anonymous"`
	CitizenID       int64  `bson:"citizenId" json:"citizen_id"`
	AssignedStaffID *int64 `bson:"assignedStaffId" json:"assigned_staff_id"`

	CreatedAt               time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt               time.Time  `bson:"updatedAt" json:"updated_at"`
	CompletedAt             *time.Time `bson:"completedAt" json:"completed_at"`
	EstimatedCompletionDate *time.Time `bson:"estimatedCompletionDate" json:"estimated_completion_date"`
}

// HasLocation reports whether both coordinates are present.
func (r *ServiceRequest) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// RequestDraft is the citizen-supplied content of a new request.
type RequestDraft struct {
	Title       string          `json:"title" validate:"required,min=3,max=200"`
	Description string          `json:"description" validate:"required,min=10,max=2000"`
	Category    RequestCategory `json:"category" validate:"required,oneof=road_maintenance street_lighting traffic_signals park_maintenance waste_management water_sewer noise_complaint parking_issue other"`
	Priority    RequestPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Latitude    *float64        `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64        `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address     *string         `json:"address" validate:"omitempty,max=500"`
	IsAnonymous bool            `json:"is_anonymous"`
}

// RequestPatch is a partial update. Nil pointers and unset Nullable fields are
// left untouched; Nullable fields may also be set to an explicit null.
type RequestPatch struct {
	Title                   *string             `json:"title,omitempty"`
	Description             *string             `json:"description,omitempty"`
	Category                *RequestCategory    `json:"category,omitempty"`
	Priority                *RequestPriority    `json:"priority,omitempty"`
	Status                  *RequestStatus      `json:"status,omitempty"`
	AssignedStaffID         Nullable[int64]     `json:"assigned_staff_id"`
	EstimatedCompletionDate Nullable[time.Time] `json:"estimated_completion_date"`
}

// Validate checks every present field. Enum literals must be known and text
// fields must respect the same bounds as a draft.
func (p *RequestPatch) Validate() error {
	if p.Title != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*p.Title)); n < 3 || utf8.RuneCountInString(*p.Title) > 200 {
			return fmt.Errorf("%w: title must be 3-200 characters", ErrInvalidArgument)
		}
	}
	if p.Description != nil {
		if n := utf8.RuneCountInString(strings.TrimSpace(*p.Description)); n < 10 || utf8.RuneCountInString(*p.Description) > 2000 {
			return fmt.Errorf("%w: description must be 10-2000 characters", ErrInvalidArgument)
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, *p.Category)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, *p.Status)
	}
	return nil
}

// Empty reports whether the patch carries no field at all.
func (p *RequestPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Priority == nil && p.Status == nil &&
		!p.AssignedStaffID.Set && !p.EstimatedCompletionDate.Set
}

// Fields returns the present fields keyed by their wire names, for audit detail.
func (p *RequestPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Category != nil {
		fields["category"] = string(*p.Category)
	}
	if p.Priority != nil {
		fields["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.AssignedStaffID.Set {
		fields["assigned_staff_id"] = p.AssignedStaffID.Any()
	}
	if p.EstimatedCompletionDate.Set {
		fields["estimated_completion_date"] = p.EstimatedCompletionDate.Any()
	}
	return fields
}

// RequestFilter narrows a directory listing. Zero values mean "no filter".
type RequestFilter struct {
	Status          *RequestStatus
	Category        *RequestCategory
	Priority        *RequestPriority
	CitizenID       *int64
	AssignedStaffID *int64
	Search          string
}

// RequestQuery is a fully scoped, paginated directory query handed to the store.
type RequestQuery struct {
	Filter RequestFilter
	Skip   int64
	Limit  int64
}

// RequestStats summarizes the requests visible to a principal.
type RequestStats struct {
	Total      int64            `json:"total"`
	Open       int64            `json:"open"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByCategory map[string]int64 `json:"by_category"`
	Last7Days  []DailyCount     `json:"last_7_days"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// LocatedRequest is the projection used by the staff map.
type LocatedRequest struct {
	ID        int64           `bson:"_id" json:"id"`
	Title     string          `bson:"title" json:"title"`
	Category  RequestCategory `bson:"category" json:"category"`
	Status    RequestStatus   `bson:"status" json:"status"`
	Latitude  float64         `bson:"latitude" json:"latitude"`
	Longitude float64         `bson:"longitude" json:"longitude"`
	Address   *string         `bson:"address" json:"address"`
	CreatedAt time.Time       `bson:"createdAt" json:"created_at"`
}

// PublicStatus is what anonymous callers may learn about a request.
type PublicStatus struct {
	ID     int64         `json:"id"`
	Status RequestStatus `json:"status"`
}
