package model

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"github.com/shopspring/decimal"
	"time"
)

// The old_values column stores a flat JSON object. The typed snapshots below are
// converted to and from that map only when reading or writing the column.

const dateLayout = "2006-01-02"

// BenefitSnapshot is the state of a benefit before an "update" is applied
type BenefitSnapshot struct {
	BenefitRate decimal.Decimal
	BenefitType string
	Description sql.NullString
}

// CampaignSnapshot ...
type CampaignSnapshot struct {
	BenefitRate decimal.Decimal
	BenefitType string
	Description sql.NullString
	TermsURL    sql.NullString
	StartDate   time.Time
	EndDate     time.Time
}

// CardSnapshot ...
type CardSnapshot struct {
	Name           string
	CardType       CardType
	CardNetwork    sql.NullString
	AnnualFee      decimal.NullDecimal
	RewardType     sql.NullString
	BaseRewardRate decimal.NullDecimal
}

// BrandSnapshot ...
type BrandSnapshot struct {
	Name        string
	Code        string
	Description sql.NullString
}

func decimalValue(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func nullDecimalValue(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return decimalValue(d.Decimal)
}

func nullStringValue(s sql.NullString) interface{} {
	if !s.Valid {
		return nil
	}
	return s.String
}

// ToMap ...
func (s BenefitSnapshot) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"benefit_rate": decimalValue(s.BenefitRate),
		"benefit_type": s.BenefitType,
		"description":  nullStringValue(s.Description),
	}
}

// ToMap ...
func (s CampaignSnapshot) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"benefit_rate": decimalValue(s.BenefitRate),
		"benefit_type": s.BenefitType,
		"description":  nullStringValue(s.Description),
		"terms_url":    nullStringValue(s.TermsURL),
		"start_date":   s.StartDate.Format(dateLayout),
		"end_date":     s.EndDate.Format(dateLayout),
	}
}

// ToMap ...
func (s CardSnapshot) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"name":             s.Name,
		"card_type":        string(s.CardType),
		"card_network":     nullStringValue(s.CardNetwork),
		"annual_fee":       nullDecimalValue(s.AnnualFee),
		"reward_type":      nullStringValue(s.RewardType),
		"base_reward_rate": nullDecimalValue(s.BaseRewardRate),
	}
}

// ToMap ...
func (s BrandSnapshot) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"name":        s.Name,
		"code":        s.Code,
		"description": nullStringValue(s.Description),
	}
}

type snapshotMap map[string]interface{}

func (m snapshotMap) nullString(key string) (sql.NullString, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return sql.NullString{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return sql.NullString{}, fmt.Errorf("old_values.%s: expected string, got %T", key, v)
	}
	return sql.NullString{Valid: true, String: s}, nil
}

func (m snapshotMap) str(key string) (string, error) {
	s, err := m.nullString(key)
	return s.String, err
}

func (m snapshotMap) nullDecimal(key string) (decimal.NullDecimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.NullDecimal{}, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return decimal.NullDecimal{}, fmt.Errorf("old_values.%s: expected number, got %T", key, v)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("old_values.%s: %w", key, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func (m snapshotMap) decimal(key string) (decimal.Decimal, error) {
	d, err := m.nullDecimal(key)
	return d.Decimal, err
}

func (m snapshotMap) date(key string) (time.Time, error) {
	s, err := m.str(key)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	return time.Parse(dateLayout, s)
}

func scanSnapshotMap(src interface{}) (snapshotMap, error) {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, fmt.Errorf("old_values: unsupported type %T", src)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m snapshotMap
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("old_values: %w", err)
	}
	return m, nil
}

func snapshotValue(valid bool, m map[string]interface{}) (driver.Value, error) {
	if !valid {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// NullBenefitSnapshot ...
type NullBenefitSnapshot struct {
	Valid    bool
	Snapshot BenefitSnapshot
}

// NewBenefitSnapshot ...
func NewBenefitSnapshot(s BenefitSnapshot) NullBenefitSnapshot {
	return NullBenefitSnapshot{Valid: true, Snapshot: s}
}

// Value ...
func (n NullBenefitSnapshot) Value() (driver.Value, error) {
	return snapshotValue(n.Valid, n.Snapshot.ToMap())
}

// Scan ...
func (n *NullBenefitSnapshot) Scan(src interface{}) error {
	*n = NullBenefitSnapshot{}
	m, err := scanSnapshotMap(src)
	if err != nil || m == nil {
		return err
	}

	var s BenefitSnapshot
	if s.BenefitRate, err = m.decimal("benefit_rate"); err != nil {
		return err
	}
	if s.BenefitType, err = m.str("benefit_type"); err != nil {
		return err
	}
	if s.Description, err = m.nullString("description"); err != nil {
		return err
	}
	*n = NewBenefitSnapshot(s)
	return nil
}

// NullCampaignSnapshot ...
type NullCampaignSnapshot struct {
	Valid    bool
	Snapshot CampaignSnapshot
}

// NewCampaignSnapshot ...
func NewCampaignSnapshot(s CampaignSnapshot) NullCampaignSnapshot {
	return NullCampaignSnapshot{Valid: true, Snapshot: s}
}

// Value ...
func (n NullCampaignSnapshot) Value() (driver.Value, error) {
	return snapshotValue(n.Valid, n.Snapshot.ToMap())
}

// Scan ...
func (n *NullCampaignSnapshot) Scan(src interface{}) error {
	*n = NullCampaignSnapshot{}
	m, err := scanSnapshotMap(src)
	if err != nil || m == nil {
		return err
	}

	var s CampaignSnapshot
	if s.BenefitRate, err = m.decimal("benefit_rate"); err != nil {
		return err
	}
	if s.BenefitType, err = m.str("benefit_type"); err != nil {
		return err
	}
	if s.Description, err = m.nullString("description"); err != nil {
		return err
	}
	if s.TermsURL, err = m.nullString("terms_url"); err != nil {
		return err
	}
	if s.StartDate, err = m.date("start_date"); err != nil {
		return err
	}
	if s.EndDate, err = m.date("end_date"); err != nil {
		return err
	}
	*n = NewCampaignSnapshot(s)
	return nil
}

// NullCardSnapshot ...
type NullCardSnapshot struct {
	Valid    bool
	Snapshot CardSnapshot
}

// NewCardSnapshot ...
func NewCardSnapshot(s CardSnapshot) NullCardSnapshot {
	return NullCardSnapshot{Valid: true, Snapshot: s}
}

// Value ...
func (n NullCardSnapshot) Value() (driver.Value, error) {
	return snapshotValue(n.Valid, n.Snapshot.ToMap())
}

// Scan ...
func (n *NullCardSnapshot) Scan(src interface{}) error {
	*n = NullCardSnapshot{}
	m, err := scanSnapshotMap(src)
	if err != nil || m == nil {
		return err
	}

	var s CardSnapshot
	if s.Name, err = m.str("name"); err != nil {
		return err
	}
	cardType, err := m.str("card_type")
	if err != nil {
		return err
	}
	s.CardType = CardType(cardType)
	if s.CardNetwork, err = m.nullString("card_network"); err != nil {
		return err
	}
	if s.AnnualFee, err = m.nullDecimal("annual_fee"); err != nil {
		return err
	}
	if s.RewardType, err = m.nullString("reward_type"); err != nil {
		return err
	}
	if s.BaseRewardRate, err = m.nullDecimal("base_reward_rate"); err != nil {
		return err
	}
	*n = NewCardSnapshot(s)
	return nil
}

// NullBrandSnapshot ...
type NullBrandSnapshot struct {
	Valid    bool
	Snapshot BrandSnapshot
}

// NewBrandSnapshot ...
func NewBrandSnapshot(s BrandSnapshot) NullBrandSnapshot {
	return NullBrandSnapshot{Valid: true, Snapshot: s}
}

// Value ...
func (n NullBrandSnapshot) Value() (driver.Value, error) {
	return snapshotValue(n.Valid, n.Snapshot.ToMap())
}

// Scan ...
func (n *NullBrandSnapshot) Scan(src interface{}) error {
	*n = NullBrandSnapshot{}
	m, err := scanSnapshotMap(src)
	if err != nil || m == nil {
		return err
	}

	var s BrandSnapshot
	if s.Name, err = m.str("name"); err != nil {
		return err
	}
	if s.Code, err = m.str("code"); err != nil {
		return err
	}
	if s.Description, err = m.nullString("description"); err != nil {
		return err
	}
	*n = NewBrandSnapshot(s)
	return nil
}

// KeywordList is stored as a JSON array
type KeywordList []string

// Value ...
func (k KeywordList) Value() (driver.Value, error) {
	if k == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(k))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan ...
func (k *KeywordList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*k = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("keywords: unsupported type %T", src)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("keywords: %w", err)
	}
	*k = list
	return nil
}
