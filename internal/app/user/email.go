package user

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedEmail holds the academic fields encoded in a college email such as
// 23bcs057@iiitdwd.ac.in.
type ParsedEmail struct {
	BatchYear     int    `json:"batchYear"`
	RollNumber    string `json:"rollNumber"`
	BranchAcronym string `json:"branchAcronym"`
	Branch        string `json:"branch"`
	IsValid       bool   `json:"isValid"`
}

var localPartPattern = regexp.MustCompile(`^(\d{2})([a-z]{3})(\d{3})$`)

var branchMap = map[string]string{
	"bcs": "CSE",
	"bds": "DSAI",
	"bec": "ECE",
}

// BranchName maps a branch acronym to its display name. Unknown acronyms are
// returned uppercased.
func BranchName(acronym string) string {
	if name, ok := branchMap[acronym]; ok {
		return name
	}
	return strings.ToUpper(acronym)
}

// ParseCollegeEmail extracts batch year, branch and roll number from email.
// It never fails: anything that is not YYbbbRRR@domain yields the zero value
// with IsValid false.
func ParseCollegeEmail(email string) ParsedEmail {
	localPart, _, found := strings.Cut(email, "@")
	if !found {
		return ParsedEmail{}
	}

	m := localPartPattern.FindStringSubmatch(localPart)
	if m == nil {
		return ParsedEmail{}
	}

	digits, err := strconv.Atoi(m[1])
	if err != nil {
		return ParsedEmail{}
	}

	return ParsedEmail{
		BatchYear:     2000 + digits,
		BranchAcronym: m[2],
		Branch:        BranchName(m[2]),
		RollNumber:    m[3],
		IsValid:       true,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
