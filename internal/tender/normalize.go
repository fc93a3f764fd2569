// internal/tender/normalize.go
package tender

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tender-workers/internal/models"
)

// Canonical field names a raw record is normalized into.
const (
	FieldID              = "id"
	FieldTitle           = "title"
	FieldOrganizer       = "organizer"
	FieldOrganizerEmail  = "organizerEmail"
	FieldAmount          = "amount"
	FieldDeadline        = "deadline"
	FieldStartDate       = "startDate"
	FieldMethod          = "method"
	FieldPurchaseType    = "purchaseType"
	FieldStatus          = "status"
	FieldCategory        = "category"
	FieldFeatures        = "features"
	FieldLink            = "link"
	FieldInvitedSupplier = "invitedSupplier"
)

// fieldKeys lists the known source keys per canonical field, ordered by
// dataset revision (newest first). The parser renamed columns between
// revisions, so lookups try each alias in turn.
var fieldKeys = map[string][]string{
	FieldID:              {"ID"},
	FieldTitle:           {"Наименование объявления", "Детали_Наименование объявления"},
	FieldOrganizer:       {"Организатор", "Общие_Организатор"},
	FieldOrganizerEmail:  {"Организатор_E-Mail"},
	FieldAmount:          {"Сумма, тг.", "Сумма, тг", "Сумма, тг ", "Общие_Сумма, тг", "Детали_Сумма", "Сумма"},
	FieldDeadline:        {"Детали_Срок окончания приема", "Окончание приема заявок"},
	FieldStartDate:       {"Дата начала приема", "Детали_Дата начала приема"},
	FieldMethod:          {"Общие_Способ проведения закупки", "Способ"},
	FieldPurchaseType:    {"Общие_Тип закупки"},
	FieldStatus:          {"Детали_Статус объявления", "Статус"},
	FieldCategory:        {"Общие_Вид предмета закупок", "Категория", "Общие_Категория"},
	FieldFeatures:        {"Общие_Признаки"},
	FieldLink:            {"Ссылка"},
	FieldInvitedSupplier: {"Приглашенный поставщик"},
}

// fieldMarkers drives the last-resort substring scan: any key containing
// the marker is accepted when none of the known aliases matched.
var fieldMarkers = map[string]string{
	FieldAmount:   "Сумма",
	FieldCategory: "Вид предмета",
	FieldDeadline: "окончания приема",
	FieldTitle:    "Наименование объявления",
}

var ymdPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// deadlineLayouts covers the timestamp shapes seen across dataset
// revisions. Parsed in local time, same as the UI did.
var deadlineLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ResolveField returns the first present, non-empty value for a canonical
// field, trying known aliases first and the marker substring scan second.
// Returns nil when the record simply does not carry the field.
func ResolveField(record models.TenderRecord, field string) interface{} {
	if record == nil {
		return nil
	}

	for _, key := range fieldKeys[field] {
		if v, ok := record[key]; ok && !isEmptyValue(v) {
			return v
		}
	}

	marker, ok := fieldMarkers[field]
	if !ok {
		return nil
	}

	// Deterministic scan order: map iteration order is random.
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(k, marker) && !isEmptyValue(record[k]) {
			return record[k]
		}
	}
	return nil
}

// ResolveString resolves a canonical field as a display string, "" when
// absent.
func ResolveString(record models.TenderRecord, field string) string {
	return stringValue(ResolveField(record, field))
}

// AmountDisplay returns the amount verbatim for display. String values
// pass through untouched; a single-entry keyed container yields the
// string form of its value; anything else degrades to "-". No numeric
// coercion happens here.
func AmountDisplay(record models.TenderRecord) string {
	raw := ResolveField(record, FieldAmount)
	if raw == nil {
		return "-"
	}

	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "-"
		}
		return v
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			return "-"
		}
		sort.Strings(keys)
		return stringValue(v[keys[0]])
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "-"
}

// ParseAmount extracts the amount as a number for the risk payload.
// The source format is locale-formatted: spaces (incl. NBSP) as
// thousands separators and comma as decimal separator. Unparseable
// input yields 0.
func ParseAmount(record models.TenderRecord) float64 {
	display := AmountDisplay(record)
	if display == "-" {
		return 0
	}

	s := strings.ReplaceAll(display, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// DeadlineInfo resolves the submission deadline and derives the display
// date plus the relative-days label. Malformed or missing input never
// errors; both values degrade to "-".
func DeadlineInfo(record models.TenderRecord, now time.Time) (deadlineText, relativeText string) {
	raw, ok := ResolveField(record, FieldDeadline).(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return "-", "-"
	}

	deadline, err := parseDeadline(strings.TrimSpace(raw))
	if err != nil {
		return "-", "-"
	}

	diffDays := int(math.Ceil(deadline.Sub(now).Hours() / 24))

	switch {
	case diffDays > 1:
		relativeText = fmt.Sprintf("%d дней", diffDays)
	case diffDays == 1:
		relativeText = "1 день"
	case diffDays == 0:
		relativeText = "Сегодня"
	default:
		relativeText = "Истёк"
	}

	deadlineText = fmt.Sprintf("%02d.%02d.%04d", deadline.Day(), deadline.Month(), deadline.Year())
	return deadlineText, relativeText
}

// DateYMD takes the date-only prefix before the first space and returns
// it when it is a strict YYYY-MM-DD, "" otherwise. Used for the risk
// payload's start/end dates.
func DateYMD(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	datePart, _, _ := strings.Cut(s, " ")
	if ymdPattern.MatchString(datePart) {
		return datePart
	}
	return ""
}

// View projects a raw record into its canonical display form.
func View(record models.TenderRecord, now time.Time) models.CanonicalTenderView {
	deadlineText, relativeText := DeadlineInfo(record, now)

	return models.CanonicalTenderView{
		ID:                    ResolveString(record, FieldID),
		Title:                 ResolveString(record, FieldTitle),
		Organizer:             ResolveString(record, FieldOrganizer),
		OrganizerEmail:        ResolveString(record, FieldOrganizerEmail),
		AmountDisplay:         AmountDisplay(record),
		DeadlineDisplay:       deadlineText,
		RelativeDeadlineLabel: relativeText,
		Method:                ResolveString(record, FieldMethod),
		PurchaseType:          ResolveString(record, FieldPurchaseType),
		Status:                ResolveString(record, FieldStatus),
		Features:              cleanFeatures(ResolveField(record, FieldFeatures)),
		ExternalLink:          ResolveString(record, FieldLink),
	}
}

// payloadDeadlineKeys orders deadline aliases for the risk payload.
// The payload prefers the announcement-level "Окончание приема заявок"
// over the detail column, the reverse of the display lookup.
var payloadDeadlineKeys = []string{"Окончание приема заявок", "Детали_Срок окончания приема"}

// BuildAnalysisPayload assembles the single-tender item for the risk
// service, resolving every field through the alias tables. Dates go
// through DateYMD and default to empty strings.
func BuildAnalysisPayload(record models.TenderRecord) models.RiskTenderPayload {
	return models.RiskTenderPayload{
		ID:              ResolveString(record, FieldID),
		Name:            ResolveString(record, FieldTitle),
		Price:           ParseAmount(record),
		Organizer:       ResolveString(record, FieldOrganizer),
		InvitedSupplier: ResolveString(record, FieldInvitedSupplier),
		Method:          ResolveString(record, FieldMethod),
		StartDate:       DateYMD(ResolveField(record, FieldStartDate)),
		EndDate:         DateYMD(payloadEndDate(record)),
	}
}

func payloadEndDate(record models.TenderRecord) interface{} {
	for _, key := range payloadDeadlineKeys {
		if v, ok := record[key]; ok && !isEmptyValue(v) {
			return v
		}
	}
	return ResolveField(record, FieldDeadline)
}

func parseDeadline(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range deadlineLayouts {
		t, err := time.ParseInLocation(layout, raw, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// cleanFeatures strips the python-list punctuation the parser left in
// the features column: "['Без учета НДС', 'СМР']" → "Без учета НДС, СМР".
func cleanFeatures(raw interface{}) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	replacer := strings.NewReplacer("[", "", "]", "", "'", "")
	return replacer.Replace(s)
}

// FeatureList splits the cleaned features column into individual
// feature values for exact-match filtering.
func FeatureList(record models.TenderRecord) []string {
	cleaned := cleanFeatures(ResolveField(record, FieldFeatures))
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}
	parts := strings.Split(cleaned, ",")
	features := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			features = append(features, v)
		}
	}
	if len(features) == 0 {
		return nil
	}
	return features
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
