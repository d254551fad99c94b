// Package card turns raw Scryfall card objects into the flat records synced
// into a workspace.
package card

// Raw represents a card object as returned by the Scryfall API.
// Only the fields the importer reads are decoded.
type Raw struct {
	ID              string             `json:"id"`
	OracleID        string             `json:"oracle_id"`
	Name            string             `json:"name"`
	FlavorName      string             `json:"flavor_name"`
	PrintedName     string             `json:"printed_name"`
	Set             string             `json:"set"`
	CollectorNumber string             `json:"collector_number"`
	Rarity          string             `json:"rarity"`
	ManaCost        string             `json:"mana_cost"`
	CMC             *float64           `json:"cmc"`
	TypeLine        string             `json:"type_line"`
	OracleText      string             `json:"oracle_text"`
	Colors          []string           `json:"colors"`
	ColorIdentity   []string           `json:"color_identity"`
	ScryfallURI     string             `json:"scryfall_uri"`
	ImageURIs       map[string]string  `json:"image_uris"`
	CardFaces       []Face             `json:"card_faces"`
	Power           string             `json:"power"`
	Toughness       string             `json:"toughness"`
	PromoTypes      []string           `json:"promo_types"`
	Lang            string             `json:"lang"`
	ReleasedAt      string             `json:"released_at"`
	Layout          string             `json:"layout"`
	Artist          string             `json:"artist"`
	Prices          map[string]*string `json:"prices"`
	Legalities      map[string]string  `json:"legalities"`
}

// Face is one side of a multi-faced card.
type Face struct {
	Name       string            `json:"name"`
	FlavorName string            `json:"flavor_name"`
	ManaCost   string            `json:"mana_cost"`
	TypeLine   string            `json:"type_line"`
	OracleText string            `json:"oracle_text"`
	Power      string            `json:"power"`
	Toughness  string            `json:"toughness"`
	ImageURIs  map[string]string `json:"image_uris"`
}

// Card is the canonical, flattened form of one printing.
//
// ID is the printing-level Scryfall ID and is the reconciliation key.
type Card struct {
	ID              string
	OracleID        string
	Name            string
	AltName         string
	Set             string
	CollectorNumber string
	Rarity          string
	ManaCost        string
	CMC             *float64
	TypeLine        string
	OracleText      string
	Colors          []string
	ColorIdentity   []string
	ScryfallURI     string
	ImageURLs       []string
	Power           string
	Toughness       string
	Procurement     []string
	CNSort          *float64
	Lang            string
	ReleasedAt      string
	Layout          string
	Artist          string
	Prices          map[string]*string
	Legalities      map[string]string

	// TitleOverride is set by an override entry and replaces the formatted title.
	TitleOverride string
}

// Key returns the composite "SET-collector_number" key used by overrides and previews.
func (c Card) Key() string {
	return c.Set + "-" + c.CollectorNumber
}
