/*
Package errs provides the application error type and the error code constants
shared by services and HTTP handlers.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after the JSON value.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrMissingFields indicates that one or more required fields are absent.
	ErrMissingFields = 1008
)

// 2xxx: Study Jam, Chat and Review Business Errors
const (
	ErrStudyJamNotFound      = 2101
	ErrStudyJamFull          = 2102
	ErrAlreadyJoined         = 2103
	ErrNotParticipant        = 2104
	ErrCreatorCannotLeave    = 2105
	ErrRequestAlreadySent    = 2106
	ErrRequestNotFound       = 2107
	ErrWeeklyQuotaExceeded   = 2108
	ErrStudyJamClosed        = 2109
	ErrInvalidCapacity       = 2110
	ErrInvalidSchedule       = 2111
	ErrInvalidStatus         = 2112
	ErrSeedDataExists        = 2113
	ErrChatNotFound          = 2201
	ErrChatWithSelf          = 2202
	ErrMessageContentTooLong = 2203
	ErrInvalidMessageType    = 2204
	ErrAttachmentKeyInvalid  = 2205
	ErrFileSizeTooLarge      = 2206
	ErrFileTypeNotAllowed    = 2207
	ErrInvalidRating         = 2301
	ErrCannotReviewSelf      = 2302
	ErrGoalNotFound          = 2401
	ErrInvalidGoal           = 2402
	ErrNotificationNotFound  = 2501
)

// 3xxx: User, Session, and Security Errors
const (
	ErrPowChallengeRequired = 3001
	ErrPowChallengeInvalid  = 3002
	ErrInvalidCollegeEmail  = 3003
	ErrInvalidPassword      = 3004
	ErrMissingSubjects      = 3005
	ErrUserAlreadyExists    = 3006
	ErrInvalidCredentials   = 3007
	ErrPasswordNotSet       = 3008
	ErrUserNotFound         = 3009
	ErrProfileIncomplete    = 3010
	ErrUnauthorized         = 3011
	ErrForbidden            = 3012
	ErrInvalidProfile       = 3013
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates the object storage backend rejected or failed a request.
	ErrFileStorageFailed = 5001

	// ErrFileStorageDisabled indicates that no object storage is configured.
	ErrFileStorageDisabled = 5002
)
