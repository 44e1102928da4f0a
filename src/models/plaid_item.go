package models

// PlaidImportRequest asks for one transactions/sync round against a linked item.
type PlaidImportRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
	Cursor      string `json:"cursor"`
}

func (PlaidImportRequest) FieldMessages() map[string]string {
	return map[string]string{"accessToken": "Access token is required"}
}

type PlaidImportResult struct {
	Imported   int    `json:"imported"`
	Skipped    int    `json:"skipped"`
	NextCursor string `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
}
