package journal

import (
	"database/sql"
	"strings"

	"github.com/arcnetlabs/vault-client/internal/models"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func scanOperations(rows *sql.Rows) ([]models.OperationRecord, error) {
	var records []models.OperationRecord
	for rows.Next() {
		var record models.OperationRecord
		var kind string
		var targetID sql.NullInt64
		err := rows.Scan(&record.ID, &kind, &record.Vault, &targetID, &record.TxHash,
			&record.Succeeded, &record.ErrorCode, &record.Detail, &record.StartedAt, &record.SettledAt)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeStorage, "Failed to scan operation row", err.Error())
		}
		record.Kind = models.OperationKind(kind)
		if targetID.Valid {
			id := uint64(targetID.Int64)
			record.TargetID = &id
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeStorage, "Failed to iterate operation rows", err.Error())
	}
	return records, nil
}
