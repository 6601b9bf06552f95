// Package classify implements the three-tier log classification cascade:
// deterministic rules, semantic nearest-neighbor matching, and a generative
// model fallback for known-hard sources.
package classify

import "github.com/Nikhilg27425/K8s-anamoly-detection/internal/collector"

// Category is a classification label attached to a log record.
type Category string

const (
	Normal             Category = "Normal"
	WorkflowError      Category = "Workflow Error"
	DeprecationWarning Category = "Deprecation Warning"
	ConnectivityIssue  Category = "Connectivity Issue"
	SecurityAlert      Category = "Security Alert"
	ResourceWarning    Category = "Resource Warning"
	UserAction         Category = "User Action"
	SystemNotification Category = "System Notification"
	Unclassified       Category = "Unclassified"
)

// KnownCategories lists every label the generative tier may assign.
func KnownCategories() []Category {
	return []Category{
		Normal, WorkflowError, DeprecationWarning, ConnectivityIssue,
		SecurityAlert, ResourceWarning, UserAction, SystemNotification,
		Unclassified,
	}
}

// Tier identifies which cascade stage produced a classification.
type Tier string

const (
	TierRule       Tier = "rule"
	TierSemantic   Tier = "semantic"
	TierGenerative Tier = "generative"
)

// ClassifiedLog is a log record plus the single category and tier the
// cascade assigned to it. Confidence is tier-dependent: rules report 1,
// the semantic tier reports 1/(1+distance), the generative tier reports 0
// because the model gives no usable score.
type ClassifiedLog struct {
	collector.Record
	Category   Category `json:"category"`
	Tier       Tier     `json:"tier"`
	Confidence float64  `json:"confidence"`
}
