package exemplar

// Definition is one labeled exemplar text before embedding.
type Definition struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// DefaultDefinitions covers the stock categories well enough to classify a
// typical cluster log stream out of the box. Operators extend or replace
// them with an exemplars file.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Label: "Normal", Text: "Service started successfully and is accepting connections"},
		{Label: "Normal", Text: "Health check passed for all replicas"},
		{Label: "Normal", Text: "Request completed with status 200 in 45ms"},
		{Label: "Workflow Error", Text: "Lead conversion workflow failed: step 3 returned an unexpected state"},
		{Label: "Workflow Error", Text: "Job processing aborted after repeated task failures"},
		{Label: "Workflow Error", Text: "Pipeline stage could not be completed due to an invalid input record"},
		{Label: "Deprecation Warning", Text: "The --legacy-flag option is deprecated and will be removed in a future release"},
		{Label: "Deprecation Warning", Text: "API endpoint v1beta1 is deprecated, migrate to v1 before the next upgrade"},
		{Label: "Connectivity Issue", Text: "Connection to upstream service timed out after 30 seconds"},
		{Label: "Connectivity Issue", Text: "DNS resolution failed for service discovery endpoint"},
		{Label: "Security Alert", Text: "Multiple failed login attempts detected from unknown IP address"},
		{Label: "Security Alert", Text: "Unauthorized access attempt blocked by admission webhook"},
		{Label: "Resource Warning", Text: "Memory usage above 90 percent of the configured limit"},
		{Label: "Resource Warning", Text: "Pod evicted due to node disk pressure"},
		{Label: "User Action", Text: "User alice updated the deployment configuration"},
		{Label: "System Notification", Text: "Scheduled backup completed and uploaded to object storage"},
	}
}
