package specification

import "gorm.io/gorm"

type ByOrganization struct {
	OrganizationId string
}

func (s ByOrganization) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("organization_id = ?", s.OrganizationId)
}

type ByClient struct {
	ClientId string
}

func (s ByClient) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("client_id = ?", s.ClientId)
}

// RiskScoreAtLeast matches sessions whose extracted risk score is >= Min.
type RiskScoreAtLeast struct {
	Min float64
}

func (s RiskScoreAtLeast) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("risk_score >= ?", s.Min)
}

// ClientSessions scopes a query to one client of one organization, newest first.
func ClientSessions(orgId, clientId string) []Specification {
	return []Specification{
		ByOrganization{OrganizationId: orgId},
		ByClient{ClientId: clientId},
		OrderBy{Field: "created_at", Desc: true},
	}
}
