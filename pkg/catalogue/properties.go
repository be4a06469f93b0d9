package catalogue

import (
	"fmt"
	"strings"
)

// Classification is the government security classification of an entity.
type Classification string

const (
	ClassificationOfficial          Classification = "OFFICIAL"
	ClassificationOfficialSensitive Classification = "OFFICIAL-SENSITIVE"
)

// ParseClassification parses a classification value. An empty value
// defaults to OFFICIAL-SENSITIVE.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return ClassificationOfficialSensitive, nil
	case string(ClassificationOfficial):
		return ClassificationOfficial, nil
	case string(ClassificationOfficialSensitive), "OFFICIAL_SENSITIVE":
		return ClassificationOfficialSensitive, nil
	default:
		return "", &ValidationError{Field: "security_classification", Err: fmt.Errorf("%w: %q", ErrInvalidClassification, s)}
	}
}

// UsageRestrictions describes how an entity may be used.
// DPIARequired is nil when unset, which is distinct from false.
type UsageRestrictions struct {
	DPIARequired *bool  `json:"dpia_required"`
	DPIALocation string `json:"dpia_location"`
}

// AccessInformation describes how to get access to the data.
type AccessInformation struct {
	WhereToAccessDataset string `json:"where_to_access_dataset"`
	SourceDatasetName    string `json:"source_dataset_name"`
	S3Location           string `json:"s3_location"`
	AccessRequirements   string `json:"access_requirements"`
}

// DataSummary summarises the size and freshness of the data.
type DataSummary struct {
	RowCount      string `json:"row_count"`
	RefreshPeriod string `json:"refresh_period"`
}

// FurtherInformation lists the contact routes of the owning team.
type FurtherInformation struct {
	DCSlackChannelName string `json:"dc_slack_channel_name"`
	DCSlackChannelURL  string `json:"dc_slack_channel_url"`
	DCTeamsChannelName string `json:"dc_teams_channel_name"`
	DCTeamsChannelURL  string `json:"dc_teams_channel_url"`
	DCTeamID           string `json:"dc_team_id"`
	DCTeamName         string `json:"dc_team_name"`
	DCTeamEmail        string `json:"dc_team_email"`
}

// CustomEntityProperties groups the MoJ-specific custom properties.
type CustomEntityProperties struct {
	UsageRestrictions  UsageRestrictions  `json:"usage_restrictions"`
	AccessInformation  AccessInformation  `json:"access_information"`
	DataSummary        DataSummary        `json:"data_summary"`
	FurtherInformation FurtherInformation `json:"further_information"`
	Classification     Classification     `json:"security_classification"`
}

// DefaultCustomEntityProperties returns properties with every string empty,
// DPIA unset and the default classification.
func DefaultCustomEntityProperties() CustomEntityProperties {
	return CustomEntityProperties{Classification: ClassificationOfficialSensitive}
}

// CustomPropertiesFromMap builds CustomEntityProperties from the flattened
// key/value custom properties of a DataHub entity. Unknown keys are ignored.
func CustomPropertiesFromMap(m map[string]string) (CustomEntityProperties, error) {
	props := DefaultCustomEntityProperties()

	if v, ok := m["dpia_required"]; ok {
		required := v == "True"
		props.UsageRestrictions.DPIARequired = &required
	}
	props.UsageRestrictions.DPIALocation = m["dpia_location"]

	props.AccessInformation = AccessInformation{
		WhereToAccessDataset: m["where_to_access_dataset"],
		SourceDatasetName:    m["source_dataset_name"],
		S3Location:           m["s3_location"],
		AccessRequirements:   m["access_requirements"],
	}

	props.DataSummary = DataSummary{
		RowCount:      m["row_count"],
		RefreshPeriod: m["refresh_period"],
	}

	props.FurtherInformation = FurtherInformation{
		DCSlackChannelName: m["dc_slack_channel_name"],
		DCSlackChannelURL:  m["dc_slack_channel_url"],
		DCTeamsChannelName: m["dc_teams_channel_name"],
		DCTeamsChannelURL:  m["dc_teams_channel_url"],
		DCTeamID:           m["dc_team_id"],
		DCTeamName:         m["dc_team_name"],
		DCTeamEmail:        m["dc_team_email"],
	}

	classification, err := ParseClassification(m["security_classification"])
	if err != nil {
		return props, err
	}
	props.Classification = classification

	return props, nil
}
