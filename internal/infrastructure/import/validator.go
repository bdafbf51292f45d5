package csvimport

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeEmail   FieldType = "email"
	TypeBool    FieldType = "bool"
)

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column      string
	Type        FieldType
	Required    bool
	MinLength   int
	MaxLength   int
	MinValue    *decimal.Decimal
	MaxValue    *decimal.Decimal
	Pattern     *regexp.Regexp
	PatternDesc string
	Enum        []string
	Unique      bool
	CustomFunc  func(value string) error
}

// FieldRuleBuilder builds field rules fluently:
//
//	Field("sku").Required().Pattern(`^\S+$`, "no whitespace").Unique().Build()
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder; the default type is string
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// String sets the field type to string
func (b *FieldRuleBuilder) String() *FieldRuleBuilder {
	b.rule.Type = TypeString
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Email sets the field type to email
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

// Bool sets the field type to boolean
func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder {
	b.rule.Type = TypeBool
	return b
}

// MinLength sets the minimum length in characters
func (b *FieldRuleBuilder) MinLength(n int) *FieldRuleBuilder {
	b.rule.MinLength = n
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Min sets the minimum numeric value
func (b *FieldRuleBuilder) Min(v int64) *FieldRuleBuilder {
	d := decimal.NewFromInt(v)
	b.rule.MinValue = &d
	return b
}

// Max sets the maximum numeric value
func (b *FieldRuleBuilder) Max(v int64) *FieldRuleBuilder {
	d := decimal.NewFromInt(v)
	b.rule.MaxValue = &d
	return b
}

// Pattern sets a regex the value must match
func (b *FieldRuleBuilder) Pattern(pattern, description string) *FieldRuleBuilder {
	b.rule.Pattern = regexp.MustCompile(pattern)
	b.rule.PatternDesc = description
	return b
}

// OneOf restricts the value to a case-insensitive set
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.Enum = values
	return b
}

// Unique rejects repeated values within the file (case-insensitive)
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Custom sets a custom validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// RequiredColumns lists the columns of required rules
func RequiredColumns(rules []FieldRule) []string {
	var cols []string
	for _, r := range rules {
		if r.Required {
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// FieldValidator validates rows against rules. It remembers values of
// unique columns, so use one validator per file.
type FieldValidator struct {
	rules  []FieldRule
	unique map[string]map[string]int // column -> folded value -> first line
}

// NewFieldValidator creates a new field validator
func NewFieldValidator(rules []FieldRule) *FieldValidator {
	return &FieldValidator{
		rules:  rules,
		unique: make(map[string]map[string]int),
	}
}

// ValidateRow returns every problem found in row, in rule order
func (v *FieldValidator) ValidateRow(row *Row) []RowError {
	var errs []RowError
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				errs = append(errs, NewRowError(row.LineNumber, rule.Column, ErrCodeImportRequiredField,
					fmt.Sprintf("field '%s' is required", rule.Column)))
			}
			continue
		}
		errs = append(errs, v.validateValue(row.LineNumber, rule, value)...)
	}
	return errs
}

func (v *FieldValidator) validateValue(line int, rule FieldRule, value string) []RowError {
	if err := validateType(value, rule.Type); err != nil {
		return []RowError{NewRowErrorWithValue(line, rule.Column, ErrCodeImportInvalidType,
			fmt.Sprintf("expected %s", rule.Type), value)}
	}

	var errs []RowError
	length := utf8.RuneCountInString(value)
	if (rule.MaxLength > 0 && length > rule.MaxLength) || (rule.MinLength > 0 && length < rule.MinLength) {
		errs = append(errs, NewRowError(line, rule.Column, ErrCodeImportInvalidLength, lengthMessage(rule.MinLength, rule.MaxLength)))
	}

	if rule.Type == TypeInt || rule.Type == TypeDecimal {
		d, _ := decimal.NewFromString(value)
		if (rule.MinValue != nil && d.LessThan(*rule.MinValue)) || (rule.MaxValue != nil && d.GreaterThan(*rule.MaxValue)) {
			errs = append(errs, NewRowErrorWithValue(line, rule.Column, ErrCodeImportInvalidRange,
				rangeMessage(rule.MinValue, rule.MaxValue), value))
		}
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		errs = append(errs, NewRowErrorWithValue(line, rule.Column, ErrCodeImportPatternMismatch,
			fmt.Sprintf("value does not match %s", rule.PatternDesc), value))
	}

	if len(rule.Enum) > 0 && !containsFold(rule.Enum, value) {
		errs = append(errs, NewRowErrorWithValue(line, rule.Column, ErrCodeImportInvalidEnum,
			fmt.Sprintf("must be one of %s", strings.Join(rule.Enum, ", ")), value))
	}

	if rule.Unique {
		seen := v.unique[rule.Column]
		if seen == nil {
			seen = make(map[string]int)
			v.unique[rule.Column] = seen
		}
		key := strings.ToLower(value)
		if first, dup := seen[key]; dup {
			errs = append(errs, NewRowErrorWithValue(line, rule.Column, ErrCodeImportDuplicateInFile,
				fmt.Sprintf("duplicate value (first seen in row %d)", first), value))
		} else {
			seen[key] = line
		}
	}

	if rule.CustomFunc != nil {
		if err := rule.CustomFunc(value); err != nil {
			errs = append(errs, NewRowErrorWithValue(line, rule.Column, ErrCodeImportValidation, err.Error(), value))
		}
	}
	return errs
}

func validateType(value string, fieldType FieldType) error {
	switch fieldType {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeEmail:
		addr, err := mail.ParseAddress(value)
		if err == nil && addr.Address != value {
			return fmt.Errorf("invalid email address: %s", value)
		}
		return err
	case TypeBool:
		_, err := ParseBool(value)
		return err
	}
	return nil
}

// ParseBool accepts true/false, 1/0, yes/no and y/n in any case
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %s", value)
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func lengthMessage(minLen, maxLen int) string {
	switch {
	case minLen > 0 && maxLen > 0:
		return fmt.Sprintf("length must be between %d and %d", minLen, maxLen)
	case maxLen > 0:
		return fmt.Sprintf("length must be at most %d", maxLen)
	default:
		return fmt.Sprintf("length must be at least %d", minLen)
	}
}

func rangeMessage(minV, maxV *decimal.Decimal) string {
	switch {
	case minV != nil && maxV != nil:
		return fmt.Sprintf("value must be between %s and %s", minV, maxV)
	case minV != nil:
		return fmt.Sprintf("value must be at least %s", minV)
	default:
		return fmt.Sprintf("value must be at most %s", maxV)
	}
}
