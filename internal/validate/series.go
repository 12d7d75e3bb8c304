package validate

import (
	"encoding/json"
	"fmt"

	"github.com/jpdictsync/jpdictsync/internal/dictmodel"
)

// Record is a parsed record's field set, as delivered by the streamer.
type Record = map[string]json.RawMessage

// ValidateAddOrChange checks raw against series' schema. The record is
// accepted as-is (it is stored as an opaque JSON blob); validation only
// gates structural correctness.
func ValidateAddOrChange(series dictmodel.Series, raw Record) error {
	switch series {
	case dictmodel.SeriesWords:
		return validateWord(raw)
	case dictmodel.SeriesKanji:
		return validateKanji(raw)
	case dictmodel.SeriesNames:
		return validateName(raw)
	case dictmodel.SeriesRadicals:
		return validateRadical(raw)
	default:
		return fmt.Errorf("unknown series %q", series)
	}
}

// ValidateDelete checks that raw carries a valid identifier field for the
// series and returns its raw value for the store to key the deletion on.
// Other fields in raw are not examined.
func ValidateDelete(series dictmodel.Series, raw Record) (json.RawMessage, error) {
	id, ok := raw["id"]
	if !ok {
		return nil, fmt.Errorf("field %q: missing", "id")
	}
	switch series {
	case dictmodel.SeriesWords, dictmodel.SeriesKanji, dictmodel.SeriesNames:
		if err := isSafeIntMin(id, 1); err != nil {
			return nil, fmt.Errorf("field %q: %w", "id", err)
		}
	case dictmodel.SeriesRadicals:
		if err := isNonEmptyString(id); err != nil {
			return nil, fmt.Errorf("field %q: %w", "id", err)
		}
	default:
		return nil, fmt.Errorf("unknown series %q", series)
	}
	return id, nil
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("not an object: %s", raw)
	}
	return obj, nil
}

// --- words ---

func validateWord(raw Record) error {
	if err := required(raw, "id", func(r json.RawMessage) error { return isSafeIntMin(r, 1) }); err != nil {
		return err
	}
	if err := required(raw, "kanji", validateKanjiMetaArray); err != nil {
		return err
	}
	if err := required(raw, "kana", validateKanaMetaArray); err != nil {
		return err
	}
	return required(raw, "sense", validateSenseArray)
}

func validateKanjiMetaArray(raw json.RawMessage) error {
	return arrayOfSentinelOr(raw, func(el json.RawMessage) error {
		obj, err := asObject(el)
		if err != nil {
			return err
		}
		if err := required(obj, "text", isNonEmptyString); err != nil {
			return err
		}
		if err := required(obj, "tags", isStringArray); err != nil {
			return err
		}
		return required(obj, "common", isBool)
	})
}

func validateKanaMetaArray(raw json.RawMessage) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		// The 0 sentinel marks "no metadata for the parallel entry".
		var n json.Number
		if json.Unmarshal(el, &n) == nil && n.String() == "0" {
			continue
		}
		obj, err := asObject(el)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := required(obj, "text", isNonEmptyString); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := required(obj, "tags", isStringArray); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := required(obj, "appliesToKanji", isStringArray); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := required(obj, "common", isBool); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func validateSenseArray(raw json.RawMessage) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		if err := validateSense(el); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func validateSense(raw json.RawMessage) error {
	obj, err := asObject(raw)
	if err != nil {
		return err
	}
	for _, field := range []string{"pos", "field", "misc", "dialect", "gloss"} {
		if err := required(obj, field, isStringArray); err != nil {
			return err
		}
	}
	if err := optional(obj, "info", isString); err != nil {
		return err
	}
	if err := optional(obj, "xref", validateXrefArray); err != nil {
		return err
	}
	if err := optional(obj, "antonym", validateXrefArray); err != nil {
		return err
	}
	return optional(obj, "languageSource", validateLanguageSourceArray)
}

func validateXrefArray(raw json.RawMessage) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		obj, err := asObject(el)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		_, hasK := obj["k"]
		_, hasR := obj["r"]
		if !hasK && !hasR {
			return fmt.Errorf("element %d: xref must carry k, r, or both", i)
		}
		if hasK {
			if err := required(obj, "k", isNonEmptyString); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		if hasR {
			if err := required(obj, "r", isNonEmptyString); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	}
	return nil
}

func validateLanguageSourceArray(raw json.RawMessage) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("not an array: %s", raw)
	}
	for i, el := range arr {
		obj, err := asObject(el)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := required(obj, "lang", isNonEmptyString); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := optional(obj, "src", isString); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := optional(obj, "part", isTrue); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := optional(obj, "wasei", isTrue); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// --- kanji ---

func validateKanji(raw Record) error {
	if err := required(raw, "id", func(r json.RawMessage) error { return isSafeIntMin(r, 1) }); err != nil {
		return err
	}
	if err := required(raw, "radical", func(r json.RawMessage) error {
		obj, err := asObject(r)
		if err != nil {
			return err
		}
		return required(obj, "ideo", func(r json.RawMessage) error { return isSafeIntMin(r, 1) })
	}); err != nil {
		return err
	}
	if err := required(raw, "misc", func(r json.RawMessage) error {
		obj, err := asObject(r)
		if err != nil {
			return err
		}
		if err := required(obj, "strokeCount", func(r json.RawMessage) error { return isSafeIntMin(r, 1) }); err != nil {
			return err
		}
		if err := optional(obj, "grade", func(r json.RawMessage) error { return isSafeIntMin(r, 0) }); err != nil {
			return err
		}
		if err := optional(obj, "frequency", func(r json.RawMessage) error { return isSafeIntMin(r, 0) }); err != nil {
			return err
		}
		return optional(obj, "jlptLevel", func(r json.RawMessage) error { return isSafeIntMin(r, 0) })
	}); err != nil {
		return err
	}
	if err := required(raw, "reading", func(r json.RawMessage) error {
		obj, err := asObject(r)
		if err != nil {
			return err
		}
		if err := required(obj, "ja_on", isStringArray); err != nil {
			return err
		}
		return required(obj, "ja_kun", isStringArray)
	}); err != nil {
		return err
	}
	if err := required(raw, "meanings", isStringArray); err != nil {
		return err
	}
	return required(raw, "components", func(r json.RawMessage) error { return isIntArrayMin(r, 0) })
}

// --- names ---

func validateName(raw Record) error {
	if err := required(raw, "id", func(r json.RawMessage) error { return isSafeIntMin(r, 1) }); err != nil {
		return err
	}
	if err := required(raw, "kanji", isStringArray); err != nil {
		return err
	}
	if err := required(raw, "kana", isStringArray); err != nil {
		return err
	}
	return required(raw, "tr", func(r json.RawMessage) error {
		obj, err := asObject(r)
		if err != nil {
			return err
		}
		if err := required(obj, "type", isStringArray); err != nil {
			return err
		}
		if err := required(obj, "det", isStringArray); err != nil {
			return err
		}
		return required(obj, "cf", isStringArray)
	})
}

// --- radicals ---

func validateRadical(raw Record) error {
	if err := required(raw, "id", isNonEmptyString); err != nil {
		return err
	}
	if err := required(raw, "rad", func(r json.RawMessage) error {
		obj, err := asObject(r)
		if err != nil {
			return err
		}
		if err := required(obj, "x", func(r json.RawMessage) error { return isSafeIntMin(r, 1) }); err != nil {
			return err
		}
		if err := optional(obj, "b", isNonEmptyString); err != nil {
			return err
		}
		return optional(obj, "k", isNonEmptyString)
	}); err != nil {
		return err
	}
	if err := required(raw, "pos", func(r json.RawMessage) error {
		obj, err := asObject(r)
		if err != nil {
			return err
		}
		if err := optional(obj, "char", isNonEmptyString); err != nil {
			return err
		}
		return optional(obj, "position", isString)
	}); err != nil {
		return err
	}
	return required(raw, "stroke", func(r json.RawMessage) error { return isSafeIntMin(r, 0) })
}
