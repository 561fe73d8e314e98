package models

type ForeignKey struct {
	TableName            string `json:"table_name"`
	ColumnName           string `json:"column_name"`
	ReferencedTableName  string `json:"referenced_table_name"`
	ReferencedColumnName string `json:"referenced_column_name"`
	ConstraintName       string `json:"constraint_name"`
}

type TableDependency struct {
	TableName  string   `json:"table_name"`
	DependsOn  []string `json:"depends_on"` // Tables this one references
	Position   int      `json:"position"`   // Index in the reported order
	Unresolved bool     `json:"unresolved"` // Placed by the cycle fallback
}

type OrderReport struct {
	Direction  string            `json:"direction"` // "delete" or "restore"
	Tables     []TableDependency `json:"tables"`
	Fallback   bool              `json:"fallback"`
	Unresolved []string          `json:"unresolved,omitempty"`
}
