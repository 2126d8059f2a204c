package models

// GazetteerEntry is one reference value of a gazetteer-validated geography
// type.
type GazetteerEntry struct {
	ID    uint   `gorm:"primaryKey" json:"-"`
	Kind  string `gorm:"size:32;uniqueIndex:idx_gazetteer_kind_value" json:"kind"`
	Value string `gorm:"size:191;uniqueIndex:idx_gazetteer_kind_value" json:"value"`
}

// TableName overrides the gorm table name.
func (GazetteerEntry) TableName() string {
	return "geomancer_gazetteer"
}
