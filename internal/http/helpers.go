package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// parseBody reads and decodes the JSON body of r.
func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

// namePatch reads the optional name and machineName of a category or type
// update. Present fields must be strings.
func namePatch(p *RequestBodyParser) (name, machineName *string, err error) {
	if v, ok, err := p.String("name"); err != nil {
		return nil, nil, err
	} else if ok {
		name = &v
	}
	if v, ok, err := p.String("machineName"); err != nil {
		return nil, nil, err
	} else if ok {
		machineName = &v
	}
	return name, machineName, nil
}

// transactionInput reads a create body. An unparsable date falls back to
// the current time, like an absent one.
func transactionInput(p *RequestBodyParser) (services.TransactionInput, error) {
	var in services.TransactionInput
	if v, ok, err := p.Int64("userId"); err != nil {
		return in, err
	} else if ok {
		in.UserID = &v
	}

	var err error
	if in.CategoryID, _, err = p.Int64("categoryId"); err != nil {
		return in, err
	}
	if in.TypeID, _, err = p.Int64("typeId"); err != nil {
		return in, err
	}
	if amount, ok, err := p.Decimal("amount"); err != nil {
		return in, err
	} else if ok {
		in.Amount = &amount
	}
	if date, _, ok := p.Date("date"); ok {
		in.Date = &date
	}
	if in.Description, _, err = p.String("description"); err != nil {
		return in, err
	}
	return in, nil
}

// transactionPatch reads an update body. Each present field must carry
// the right type; an unparsable date is rejected.
func transactionPatch(p *RequestBodyParser) (services.TransactionPatch, error) {
	var patch services.TransactionPatch
	if v, ok, err := p.Int64("categoryId"); err != nil {
		return patch, err
	} else if ok {
		patch.CategoryID = &v
	}
	if v, ok, err := p.Int64("typeId"); err != nil {
		return patch, err
	} else if ok {
		patch.TypeID = &v
	}
	if v, ok, err := p.Decimal("amount"); err != nil {
		return patch, err
	} else if ok {
		patch.Amount = &v
	}
	if date, present, ok := p.Date("date"); present {
		if !ok {
			return patch, core.Invalid("date must be an ISO-8601 date")
		}
		patch.Date = &date
	}
	if v, ok, err := p.String("description"); err != nil {
		return patch, err
	} else if ok {
		patch.Description = &v
	}
	return patch, nil
}

// userPatch reads a user update body.
func userPatch(p *RequestBodyParser) (services.UserPatch, error) {
	var patch services.UserPatch
	if v, ok, err := p.Secret("password"); err != nil {
		return patch, err
	} else if ok {
		patch.Password = &v
	}
	for key, dst := range map[string]**string{
		"email": &patch.Email,
		"name":  &patch.Name,
		"role":  &patch.Role,
	} {
		v, ok, err := p.String(key)
		if err != nil {
			return patch, err
		}
		if ok {
			*dst = &v
		}
	}
	return patch, nil
}
