package card

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FaceSeparator joins per-face values of multi-faced cards.
const FaceSeparator = " // "

// maxImages caps how many face images are kept per printing.
const maxImages = 2

// imageVariants lists Scryfall image sizes from highest fidelity down.
var imageVariants = []string{"png", "large", "normal"}

// Normalize maps a raw Scryfall card into a canonical Card.
// It performs no I/O and is deterministic for a given input.
func Normalize(raw Raw) Card {
	name := firstNonEmpty(raw.Name, mergeFaces(raw.CardFaces, func(f Face) string { return f.Name }))

	return Card{
		ID:              raw.ID,
		OracleID:        raw.OracleID,
		Name:            name,
		AltName:         altName(raw, name),
		Set:             strings.ToUpper(raw.Set),
		CollectorNumber: raw.CollectorNumber,
		Rarity:          capitalize(raw.Rarity),
		ManaCost:        firstNonEmpty(raw.ManaCost, mergeFaces(raw.CardFaces, func(f Face) string { return f.ManaCost })),
		CMC:             raw.CMC,
		TypeLine:        firstNonEmpty(raw.TypeLine, mergeFaces(raw.CardFaces, func(f Face) string { return f.TypeLine })),
		OracleText:      firstNonEmpty(raw.OracleText, mergeFaces(raw.CardFaces, func(f Face) string { return f.OracleText })),
		Colors:          dedupe(raw.Colors),
		ColorIdentity:   dedupe(raw.ColorIdentity),
		ScryfallURI:     raw.ScryfallURI,
		ImageURLs:       imageURLs(raw),
		Power:           firstNonEmpty(raw.Power, mergeFaces(raw.CardFaces, func(f Face) string { return f.Power })),
		Toughness:       firstNonEmpty(raw.Toughness, mergeFaces(raw.CardFaces, func(f Face) string { return f.Toughness })),
		Procurement:     ProcurementMethods(raw.Set, raw.PromoTypes),
		CNSort:          SortKey(raw.CollectorNumber),
		Lang:            raw.Lang,
		ReleasedAt:      raw.ReleasedAt,
		Layout:          raw.Layout,
		Artist:          raw.Artist,
		Prices:          raw.Prices,
		Legalities:      raw.Legalities,
	}
}

// altName resolves the flavor/alternate name: the card's flavor name, then the
// first face flavor name, then the printed name when it differs from the oracle name.
func altName(raw Raw, oracle string) string {
	if raw.FlavorName != "" {
		return raw.FlavorName
	}
	for _, f := range raw.CardFaces {
		if f.FlavorName != "" {
			return f.FlavorName
		}
	}
	if raw.PrintedName != "" && raw.PrintedName != oracle {
		return raw.PrintedName
	}
	return ""
}

// mergeFaces joins the non-empty per-face values in face order.
func mergeFaces(faces []Face, field func(Face) string) string {
	var vals []string
	for _, f := range faces {
		if v := field(f); v != "" {
			vals = append(vals, v)
		}
	}
	return strings.Join(vals, FaceSeparator)
}

func imageURLs(raw Raw) []string {
	urls := make([]string, 0, maxImages)
	if u := bestImage(raw.ImageURIs); u != "" {
		urls = append(urls, u)
	}
	for _, f := range raw.CardFaces {
		u := bestImage(f.ImageURIs)
		if u == "" || contains(urls, u) {
			continue
		}
		urls = append(urls, u)
	}
	if len(urls) > maxImages {
		urls = urls[:maxImages]
	}
	return urls
}

func bestImage(uris map[string]string) string {
	for _, variant := range imageVariants {
		if u := uris[variant]; u != "" {
			return u
		}
	}
	return ""
}

// dedupe drops repeated values, keeping the first occurrence. Never returns nil.
func dedupe(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == "" || contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
