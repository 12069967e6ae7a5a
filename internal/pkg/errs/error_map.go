package errs

import "net/http"

// errorMap holds the client message and HTTP status for every application error code.
// Entries without a Status answer with 400 Bad Request.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed JSON body."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrMissingFields:         {Code: ErrMissingFields, Message: "Required fields are missing."},

	// 2xxx: Study Jam, Chat and Review Business Errors
	ErrStudyJamNotFound:      {Code: ErrStudyJamNotFound, Message: "Study jam not found.", Status: http.StatusNotFound},
	ErrStudyJamFull:          {Code: ErrStudyJamFull, Message: "Study jam is full."},
	ErrAlreadyJoined:         {Code: ErrAlreadyJoined, Message: "Already joined."},
	ErrNotParticipant:        {Code: ErrNotParticipant, Message: "Not a participant."},
	ErrCreatorCannotLeave:    {Code: ErrCreatorCannotLeave, Message: "Creator cannot leave."},
	ErrRequestAlreadySent:    {Code: ErrRequestAlreadySent, Message: "Request already sent."},
	ErrRequestNotFound:       {Code: ErrRequestNotFound, Message: "No pending request from this user.", Status: http.StatusNotFound},
	ErrWeeklyQuotaExceeded:   {Code: ErrWeeklyQuotaExceeded, Message: "Weekly limit reached (%d study jams). You can create more next week."},
	ErrStudyJamClosed:        {Code: ErrStudyJamClosed, Message: "Study jam is already completed."},
	ErrInvalidCapacity:       {Code: ErrInvalidCapacity, Message: "Max participants must be between %d and %d and not below the current participant count."},
	ErrInvalidSchedule:       {Code: ErrInvalidSchedule, Message: "Date must be YYYY-MM-DD and time HH:MM."},
	ErrInvalidStatus:         {Code: ErrInvalidStatus, Message: "Invalid status."},
	ErrSeedDataExists:        {Code: ErrSeedDataExists, Message: "Sample data already exists."},
	ErrChatNotFound:          {Code: ErrChatNotFound, Message: "Chat not found or access denied.", Status: http.StatusForbidden},
	ErrChatWithSelf:          {Code: ErrChatWithSelf, Message: "Cannot create chat with yourself."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrInvalidMessageType:    {Code: ErrInvalidMessageType, Message: "Invalid message type."},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large."},
	ErrFileTypeNotAllowed:    {Code: ErrFileTypeNotAllowed, Message: "File type is not allowed."},
	ErrInvalidRating:         {Code: ErrInvalidRating, Message: "Rating must be between 1 and 5."},
	ErrCannotReviewSelf:      {Code: ErrCannotReviewSelf, Message: "You cannot review yourself."},
	ErrGoalNotFound:          {Code: ErrGoalNotFound, Message: "Goal not found.", Status: http.StatusNotFound},
	ErrInvalidGoal:           {Code: ErrInvalidGoal, Message: "Invalid goal."},
	ErrNotificationNotFound:  {Code: ErrNotificationNotFound, Message: "Notification not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again.", Status: http.StatusForbidden},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again."},
	ErrInvalidCollegeEmail:  {Code: ErrInvalidCollegeEmail, Message: "Invalid college email format. Please use format: YYbranchROLL@domain (e.g., 23bcs057@iiitdwd.ac.in)"},
	ErrInvalidPassword:      {Code: ErrInvalidPassword, Message: "Password must be at least 6 characters."},
	ErrMissingSubjects:      {Code: ErrMissingSubjects, Message: "Provide at least one %s subject."},
	ErrUserAlreadyExists:    {Code: ErrUserAlreadyExists, Message: "An account with this email already exists. Please sign in.", Status: http.StatusConflict},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "Invalid email or password.", Status: http.StatusUnauthorized},
	ErrPasswordNotSet:       {Code: ErrPasswordNotSet, Message: "Password not set. Please contact support or sign up again.", Status: http.StatusUnauthorized},
	ErrUserNotFound:         {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrProfileIncomplete:    {Code: ErrProfileIncomplete, Message: "Login and complete your profile first.", Status: http.StatusUnauthorized},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Unauthorized.", Status: http.StatusUnauthorized},
	ErrForbidden:            {Code: ErrForbidden, Message: "Forbidden.", Status: http.StatusForbidden},
	ErrInvalidProfile:       {Code: ErrInvalidProfile, Message: "Invalid profile data."},

	// 5xxx: Internal System Errors
	ErrUnknown:             {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed:   {Code: ErrFileStorageFailed, Message: "File storage request failed. Please try again.", Status: http.StatusBadGateway},
	ErrFileStorageDisabled: {Code: ErrFileStorageDisabled, Message: "File uploads are not configured.", Status: http.StatusServiceUnavailable},
}
