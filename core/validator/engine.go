package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jacoelho/xsd"
	"github.com/jacoelho/xsd/xsderrors"
)

// engine wraps the XSD runtime. All direct use of the library is kept in
// this file so the rest of the package only deals in violations.
type engine struct {
	engine *xsd.Engine
}

func compileSchema(source []byte) (*engine, error) {
	e, err := xsd.Compile(context.Background(), xsd.Bytes("schema.xsd", source))
	if err != nil {
		return nil, err
	}
	return &engine{engine: e}, nil
}

// violation is one schema conformance failure in a well-formed document.
type violation struct {
	Kind   string
	Reason string
	Path   string
}

// validate returns the document's schema violations. A non-nil error means
// the document could not be parsed at all; violations are then meaningless.
func (e *engine) validate(document []byte) ([]violation, error) {
	err := e.engine.Validate(context.Background(), bytes.NewReader(document))
	if err == nil {
		return nil, nil
	}
	// The runtime reports multiple violations as xsderrors.Errors and a
	// single one as a bare *xsderrors.Error; a document that cannot be
	// parsed at all yields CodeValidationXML.
	var errs xsderrors.Errors
	if !errors.As(err, &errs) {
		var detail *xsderrors.Error
		if !errors.As(err, &detail) || detail.Code == xsderrors.CodeValidationXML {
			return nil, err
		}
		errs = xsderrors.Errors{detail}
	}
	violations := make([]violation, 0, len(errs))
	for _, item := range errs {
		var detail *xsderrors.Error
		if !errors.As(item, &detail) {
			violations = append(violations, violation{Reason: item.Error()})
			continue
		}
		violations = append(violations, violation{
			Kind:   fmt.Sprint(detail.Code),
			Reason: detail.Message,
			Path:   detail.Path,
		})
	}
	return violations, nil
}
