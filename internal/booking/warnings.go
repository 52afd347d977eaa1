package booking

import "fmt"

// WarningMessage is a user-correctable validation failure.  Its text is
// rendered verbatim to the user and never logged as an error.
type WarningMessage struct {
    Text string
}

func (w *WarningMessage) Error() string { return w.Text }

// Warn builds a WarningMessage from a plain string.
func Warn(text string) *WarningMessage { return &WarningMessage{Text: text} }

// Warnf builds a WarningMessage from a format string.
func Warnf(format string, args ...any) *WarningMessage {
    return &WarningMessage{Text: fmt.Sprintf(format, args...)}
}

// User-facing warning texts.  Each distinct validation failure maps to
// its own wording.
const (
    msgAlreadyExists      = "You already have an active booking. Unbook it before creating a new one."
    msgReservationExists  = "You already have a scheduled reservation. Unreserve it before creating a new one."
    msgRegionUnknown      = "That region does not exist. Use the status command to list available regions."
    msgRegionRestricted   = "The region %s is restricted and your account does not have access to it."
    msgReachedLimit       = "The region %s has reached its booking limit. Please try again later or pick another region."
    msgReserveNotAllowed  = "This tier does not accept scheduled reservations."
    msgTierUnknown        = "That tier does not exist in the selected region."
    msgOngoing            = "Your server is still starting. Please wait until it is ready before unbooking."
    msgAdminOngoing       = "The booking for %s is still starting and cannot be closed yet."
    msgNoBooking          = "You do not have an active booking."
    msgAdminNoBooking     = "User %s has no active booking."
    msgAdminAlreadyExists = "That user already has an active booking."
    msgNoReservation      = "You do not have a scheduled reservation."
    msgResendNoBooking    = "You do not have an active booking to resend details for."
    msgNoDetailsStarting  = "Your server is still starting; connection details are not available yet."
)

// Notification texts posted and edited by the engine during lifecycle
// transitions.
const (
    textStarting           = "Your server is starting. This may take a few minutes."
    textAdminStarting      = "Booking a server for %s."
    textReserveCreated     = "Your reservation has been created. The server will start in %s."
    textStopping           = "Your server is stopping."
    textStartSuccess       = "Your server is ready. Connection details have been sent to you privately."
    textStartFailed        = "Something went wrong while starting your server. Please try again later."
    textStopSuccess        = "Your server has been stopped. See you next time!"
    textStopFailed         = "Something went wrong while stopping your server. Please try again later."
    textServerFailed       = "Your server failed unexpectedly and the booking has been closed."
    textProviderOverloaded = "All servers in this region are currently in use. Please try again later."
    textClientForbidden    = "The provisioning service rejected this request. Please contact an operator."
    textCloseElsewhere     = "Your server has been unbooked automatically and is currently stopping. Please wait until it completes."
    textDMRefused          = "Your server is ready but your privacy settings refuse direct messages. Enable them and use the resend command."
    textDMFailed           = "Your server is ready but the connection details could not be delivered. Use the resend command."
)
