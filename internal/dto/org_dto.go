package dto

type OrganizationResponse struct {
	Id              string `json:"id"`
	PreferredSchema string `json:"preferred_schema"`
	ToneConstraints string `json:"tone_constraints,omitempty"`
	Instructions    string `json:"instructions"`
}

type SyncKnowledgeBaseResponse struct {
	Status         string `json:"status"`
	OrganizationId string `json:"org_id"`
	Chunks         int    `json:"chunks"`
}
