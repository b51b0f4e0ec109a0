// Package vcard reads and writes contacts as VCF (vCard) text.
//
// Parsing is deliberately lenient: only the fields an agenda keeps are read
// (N, FN, TEL, EMAIL) and cards without a usable name are skipped.
package vcard

import (
	"errors"
	"fmt"
	"io"
	"strings"

	govcard "github.com/emersion/go-vcard"

	"agenda/internal/model"
)

// ErrInvalidVCF is returned when the input is not a vCard stream.
var ErrInvalidVCF = errors.New("invalid vcf")

// ParseResult holds the contacts read from a VCF stream.
// Skipped counts cards that carried no name.
type ParseResult struct {
	Contacts []model.Contact
	Skipped  int
}

// Parse decodes every card in r. IDs and timestamps are left empty.
func Parse(r io.Reader) (*ParseResult, error) {
	dec := govcard.NewDecoder(r)
	res := &ParseResult{Contacts: make([]model.Contact, 0)}
	cards := 0

	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrInvalidVCF, cards+1, err)
		}
		cards++

		c, ok := contactFromCard(card)
		if !ok {
			res.Skipped++
			continue
		}
		res.Contacts = append(res.Contacts, c)
	}

	if cards == 0 {
		return nil, fmt.Errorf("%w: no vCard entries", ErrInvalidVCF)
	}
	return res, nil
}

func contactFromCard(card govcard.Card) (model.Contact, bool) {
	var c model.Contact

	if n := card.Name(); n != nil {
		c.Nombre = strings.TrimSpace(n.GivenName)
		c.Apellido = strings.TrimSpace(n.FamilyName)
	}
	if c.Nombre == "" {
		fn := strings.TrimSpace(card.PreferredValue(govcard.FieldFormattedName))
		if first, rest, found := strings.Cut(fn, " "); found {
			c.Nombre = first
			if c.Apellido == "" {
				c.Apellido = strings.TrimSpace(rest)
			}
		} else {
			c.Nombre = fn
		}
	}
	// A card with only a family name still identifies someone.
	if c.Nombre == "" && c.Apellido != "" {
		c.Nombre, c.Apellido = c.Apellido, ""
	}
	if c.Nombre == "" {
		return c, false
	}

	c.Telefono = strings.TrimSpace(strings.TrimPrefix(card.PreferredValue(govcard.FieldTelephone), "tel:"))
	c.Email = strings.TrimSpace(strings.TrimPrefix(card.PreferredValue(govcard.FieldEmail), "mailto:"))
	return c, true
}

// Write encodes contacts as vCard 4.0 entries.
func Write(w io.Writer, contacts []model.Contact) error {
	enc := govcard.NewEncoder(w)
	for _, c := range contacts {
		if err := enc.Encode(cardFromContact(c)); err != nil {
			return fmt.Errorf("encode contact %s: %w", c.ID, err)
		}
	}
	return nil
}

func cardFromContact(c model.Contact) govcard.Card {
	card := make(govcard.Card)
	card.SetValue(govcard.FieldFormattedName, c.FullName())
	card.SetName(&govcard.Name{
		GivenName:  c.Nombre,
		FamilyName: c.Apellido,
	})
	if c.Telefono != "" {
		card.SetValue(govcard.FieldTelephone, c.Telefono)
	}
	if c.Email != "" {
		card.SetValue(govcard.FieldEmail, c.Email)
	}
	if c.ID != "" {
		card.SetValue(govcard.FieldUID, "urn:uuid:"+c.ID)
	}
	govcard.ToV4(card)
	return card
}
