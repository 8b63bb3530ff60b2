package models

// CardRecord is one element of a Scryfall bulk-data card array. Only the
// fields the bot reads are decoded; everything else in the object is ignored.
type CardRecord struct {
	Object      string            `json:"object"`
	Lang        string            `json:"lang"`
	Legalities  map[string]string `json:"legalities"`
	TypeLine    string            `json:"type_line"`
	Name        string            `json:"name"`
	ScryfallURI string            `json:"scryfall_uri"`
}

// BulkDataItem describes one downloadable dataset from the Scryfall
// /bulk-data endpoint.
type BulkDataItem struct {
	Object      string `json:"object"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DownloadURI string `json:"download_uri"`
	UpdatedAt   string `json:"updated_at"`
	Size        int64  `json:"size"`
}

// CardResult is the API view of a resolved or drawn card.
type CardResult struct {
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Commander bool   `json:"commander"`
}
