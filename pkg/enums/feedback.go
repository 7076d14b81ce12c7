package enums

import "fmt"

// FeedbackType distinguishes general feedback from complaints.
type FeedbackType string

const (
	FeedbackTypeFeedback  FeedbackType = "Feedback"
	FeedbackTypeComplaint FeedbackType = "Complaint"
)

var validFeedbackTypes = []FeedbackType{FeedbackTypeFeedback, FeedbackTypeComplaint}

func (f FeedbackType) String() string {
	return string(f)
}

func (f FeedbackType) IsValid() bool {
	for _, candidate := range validFeedbackTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeedbackType converts raw input into a FeedbackType.
func ParseFeedbackType(value string) (FeedbackType, error) {
	for _, candidate := range validFeedbackTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feedback type %q", value)
}

// FeedbackStatus tracks whether a ticket was handled.
type FeedbackStatus string

const (
	FeedbackStatusPending  FeedbackStatus = "Pending"
	FeedbackStatusResolved FeedbackStatus = "Resolved"
)

var validFeedbackStatuses = []FeedbackStatus{FeedbackStatusPending, FeedbackStatusResolved}

func (f FeedbackStatus) String() string {
	return string(f)
}

func (f FeedbackStatus) IsValid() bool {
	for _, candidate := range validFeedbackStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeedbackStatus converts raw input into a FeedbackStatus.
func ParseFeedbackStatus(value string) (FeedbackStatus, error) {
	for _, candidate := range validFeedbackStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feedback status %q", value)
}
