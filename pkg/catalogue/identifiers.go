package catalogue

// Reserved identifiers shared with the catalogue ingestion pipelines.
// These values are matched exactly against DataHub data.
const (
	// DisplayInCatalogueTagURN marks entities that may be shown to users.
	DisplayInCatalogueTagURN = "urn:li:tag:dc_display_in_catalogue"

	// DisplayInCatalogueTagName is the tag name behind DisplayInCatalogueTagURN.
	DisplayInCatalogueTagName = "dc_display_in_catalogue"

	// InternalTagPrefix prefixes control tags hidden from users.
	InternalTagPrefix = "dc_"

	// DataOwnerOwnershipType is the ownership type of the accountable data owner.
	DataOwnerOwnershipType = "urn:li:ownershipType:__system__data_owner"

	// DataStewardOwnershipType is the ownership type of data stewards.
	DataStewardOwnershipType = "urn:li:ownershipType:__system__data_steward"

	// DataCustodianOwnershipType is the ownership type of data custodians.
	DataCustodianOwnershipType = "urn:li:ownershipType:__system__data_custodian"

	// OrganisationEmailDomain is used to synthesise owner e-mail addresses.
	OrganisationEmailDomain = "justice.gov.uk"

	// TagURNPrefix prefixes every tag URN.
	TagURNPrefix = "urn:li:tag:"

	// CorpUserURNPrefix prefixes every user URN.
	CorpUserURNPrefix = "urn:li:corpuser:"
)
