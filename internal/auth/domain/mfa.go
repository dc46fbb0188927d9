package domain

// TOTPSetup is an enrolment in progress. None of it is stored server-side
// until the user proves they can generate a code from Secret.
type TOTPSetup struct {
	Secret     string
	OTPAuthURL string
	QRCodePNG  string // data:image/png;base64,...
}
