package reconcile

import (
	"encoding/json"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/workspace"
)

// Card record field names.
const (
	FieldSet           = "Set"
	FieldCollectorNum  = "Collector #"
	FieldRarity        = "Rarity"
	FieldManaCost      = "Mana Cost"
	FieldCMC           = "CMC"
	FieldTypeLine      = "Type Line"
	FieldOracleText    = "Oracle Text"
	FieldColors        = "Colors"
	FieldColorIdentity = "Color Identity"
	FieldScryfallURL   = "Scryfall URL"
	FieldOracleID      = "Oracle ID"
	FieldCardID        = "Card ID"
	FieldPower         = "Power"
	FieldToughness     = "Toughness"
	FieldImage         = "Image"
	FieldProcurement   = "Procurement Method"
	FieldOracleName    = "Oracle Name"
	FieldAltName       = "FF Name"
	FieldCNSort        = "CN Sort"
	FieldLanguage      = "Language"
	FieldReleasedAt    = "Released At"
	FieldLayout        = "Layout"
	FieldArtist        = "Artist"
	FieldPrices        = "Prices"
	FieldLegalities    = "Legalities"
)

// Deck record field names.
const (
	FieldDeckName  = "Deck Name"
	FieldMainboard = "Mainboard"
	FieldSideboard = "Sideboard"
	FieldCommand   = "Command"
	FieldDecklist  = "Decklist"
	FieldCardCount = "Card Count"
)

// CardSchema is the field set of the cards collection, excluding its title.
func CardSchema() workspace.Schema {
	return workspace.Schema{
		{Name: FieldSet, Kind: workspace.KindSelect},
		{Name: FieldCollectorNum, Kind: workspace.KindText},
		{Name: FieldRarity, Kind: workspace.KindSelect},
		{Name: FieldManaCost, Kind: workspace.KindText},
		{Name: FieldCMC, Kind: workspace.KindNumber},
		{Name: FieldTypeLine, Kind: workspace.KindText},
		{Name: FieldOracleText, Kind: workspace.KindText},
		{Name: FieldColors, Kind: workspace.KindMultiSelect},
		{Name: FieldColorIdentity, Kind: workspace.KindMultiSelect},
		{Name: FieldScryfallURL, Kind: workspace.KindURL},
		{Name: FieldOracleID, Kind: workspace.KindText},
		{Name: FieldCardID, Kind: workspace.KindText},
		{Name: FieldPower, Kind: workspace.KindText},
		{Name: FieldToughness, Kind: workspace.KindText},
		{Name: FieldImage, Kind: workspace.KindFiles},
		{Name: FieldProcurement, Kind: workspace.KindMultiSelect},
		{Name: FieldOracleName, Kind: workspace.KindText},
		{Name: FieldAltName, Kind: workspace.KindText},
		{Name: FieldCNSort, Kind: workspace.KindNumber},
		{Name: FieldLanguage, Kind: workspace.KindSelect},
		{Name: FieldReleasedAt, Kind: workspace.KindDate},
		{Name: FieldLayout, Kind: workspace.KindSelect},
		{Name: FieldArtist, Kind: workspace.KindText},
		{Name: FieldPrices, Kind: workspace.KindText},
		{Name: FieldLegalities, Kind: workspace.KindText},
	}
}

// DeckSchema is the field set of the decks collection. Its relation fields
// point at the cards collection.
func DeckSchema(cardsCollectionID string) workspace.Schema {
	return workspace.Schema{
		{Name: FieldDeckName, Kind: workspace.KindText},
		{Name: FieldMainboard, Kind: workspace.KindRelation, Target: cardsCollectionID},
		{Name: FieldSideboard, Kind: workspace.KindRelation, Target: cardsCollectionID},
		{Name: FieldCommand, Kind: workspace.KindRelation, Target: cardsCollectionID},
		{Name: FieldDecklist, Kind: workspace.KindText},
		{Name: FieldCardCount, Kind: workspace.KindNumber},
	}
}

// FullFields builds the creation payload: every mapped field of c.
func FullFields(c card.Card, titleField, title string) workspace.Fields {
	f := MinimalFields(c, titleField, title)
	f[FieldSet] = workspace.Select(c.Set)
	f[FieldCollectorNum] = workspace.Text(c.CollectorNumber)
	f[FieldRarity] = workspace.Select(c.Rarity)
	f[FieldManaCost] = workspace.Text(c.ManaCost)
	f[FieldCMC] = workspace.Number(c.CMC)
	f[FieldTypeLine] = workspace.Text(c.TypeLine)
	f[FieldOracleText] = workspace.Text(c.OracleText)
	f[FieldColors] = workspace.MultiSelect(c.Colors)
	f[FieldColorIdentity] = workspace.MultiSelect(c.ColorIdentity)
	f[FieldScryfallURL] = workspace.URL(c.ScryfallURI)
	f[FieldOracleID] = workspace.Text(c.OracleID)
	f[FieldCardID] = workspace.Text(c.ID)
	f[FieldPower] = workspace.Text(c.Power)
	f[FieldToughness] = workspace.Text(c.Toughness)
	f[FieldImage] = workspace.Files(c.ImageURLs)
	return f
}

// MinimalFields builds the update payload for an existing record. Fields that
// users may edit after creation (rarity, rules text and so on) are left out.
// Images are included only when the card has some.
func MinimalFields(c card.Card, titleField, title string) workspace.Fields {
	f := workspace.Fields{
		titleField:       workspace.Title(title),
		FieldProcurement: workspace.MultiSelect(c.Procurement),
		FieldOracleName:  workspace.Text(c.Name),
		FieldAltName:     workspace.Text(c.AltName),
		FieldCNSort:      workspace.Number(c.CNSort),
		FieldLanguage:    workspace.Select(c.Lang),
		FieldReleasedAt:  workspace.Date(c.ReleasedAt),
		FieldLayout:      workspace.Select(c.Layout),
		FieldArtist:      workspace.Text(c.Artist),
		FieldPrices:      workspace.Text(snapshot(c.Prices)),
		FieldLegalities:  workspace.Text(snapshot(c.Legalities)),
	}
	if images := workspace.Files(c.ImageURLs); !images.Empty() {
		f[FieldImage] = images
	}
	return f
}

// snapshot renders a price or legality map as compact JSON with sorted keys.
func snapshot[V any](m map[string]V) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}
