package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractParameters_AdultCountPattern(t *testing.T) {
	params := extractParameters("the number of adult lions in kenya is large")
	assert.Equal(t, []string{"adult_lions_kenya"}, params)
}

func TestExtractParameters_TotalPattern(t *testing.T) {
	params := extractParameters("total number of adult animals in kenya")
	assert.Equal(t, []string{"total_adults_kenya"}, params)
}

func TestExtractDefinedParameter_ReturnsEmptyWithoutEquals(t *testing.T) {
	assert.Equal(t, "", extractDefinedParameter("just some text"))
}

func TestExtractDefinedParameter_ExtractsBeforeEquals(t *testing.T) {
	got := extractDefinedParameter("number of adult lions in kenya equals 50")
	assert.Equal(t, "adult_lions_kenya", got)
}

func TestExtractNeededParameters_WithoutEqualsReturnsAllParameters(t *testing.T) {
	got := extractNeededParameters("number of adult lions in kenya")
	assert.Equal(t, []string{"adult_lions_kenya"}, got)
}

func TestExtractNeededParameters_WithEqualsReturnsRightHandSide(t *testing.T) {
	got := extractNeededParameters("total equals number of adult lions in kenya")
	assert.Equal(t, []string{"adult_lions_kenya"}, got)
}

func TestExtractDefinedMetadataParameters_ParsesDefinesSection(t *testing.T) {
	content := "_Defines:\n- adult_lions_in_kenya\n- total_adults_in_kenya\n\n_Links:\nsomething"
	got := extractDefinedMetadataParameters(content)
	assert.Equal(t, []string{"adult_lions_in_kenya", "total_adults_in_kenya"}, got)
}

func TestExtractDefinedMetadataParameters_NoSectionReturnsNil(t *testing.T) {
	assert.Nil(t, extractDefinedMetadataParameters("no metadata here"))
}
