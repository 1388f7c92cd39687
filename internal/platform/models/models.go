package models

const (
	LeadSourceOrganic  = "organic"
	LeadSourceAd       = "ad"
	LeadSourceReferral = "referral"
	LeadSourceManual   = "manual"
)

const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusUnqualified = "unqualified"
)

const (
	DealStageNew      = "new"
	DealStageDemo     = "demo"
	DealStageProposal = "proposal"
	DealStageWon      = "won"
	DealStageLost     = "lost"
)

const (
	ActivityCall    = "call"
	ActivityMessage = "message"
	ActivityNote    = "note"
)

func ValidLeadSource(source string) bool {
	switch source {
	case LeadSourceOrganic, LeadSourceAd, LeadSourceReferral, LeadSourceManual:
		return true
	}
	return false
}

func ValidLeadStatus(status string) bool {
	switch status {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusUnqualified:
		return true
	}
	return false
}

func ValidActivityType(activityType string) bool {
	switch activityType {
	case ActivityCall, ActivityMessage, ActivityNote:
		return true
	}
	return false
}

type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Lead struct {
	ID          string `json:"id"`
	ContactID   string `json:"contact_id"`
	Source      string `json:"source"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assigned_to"`
	LastTouchAt *int64 `json:"last_touch_at,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

type Deal struct {
	ID          string  `json:"id"`
	LeadID      string  `json:"lead_id"`
	Title       string  `json:"title"`
	Value       float64 `json:"value"`
	Currency    string  `json:"currency"`
	Stage       string  `json:"stage"`
	Probability int     `json:"probability"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

type ActivityLog struct {
	ID           int64  `json:"id"`
	LeadID       string `json:"lead_id"`
	ActivityType string `json:"activity_type"`
	Text         string `json:"text"`
	CreatedBy    string `json:"created_by"`
	CreatedAt    int64  `json:"created_at"`
}
