package service

// Chat replies
const (
	MsgAskName          = "Write your name so others know who they are giving a gift to"
	MsgAskWish          = "Now write what you would like to receive as a gift. The more detail, the better!"
	MsgSaved            = "Thanks! Your information is saved. Wait for the draw!"
	MsgGreeting         = "Yo!"
	MsgGenericError     = "An error occurred, we're looking into it!"
	MsgNameLocked       = "The draw has already happened, your name can no longer be changed!"
	MsgWishLocked       = "The draw has already happened, your wish can no longer be changed!"
	MsgDrawHappened     = "The draw has already happened, your information can no longer be changed!"
	MsgEmptyInput       = "That looks empty. Please try again."
	MsgNameTooLong      = "That name is too long, please keep it under 100 characters."
	MsgWishTooLong      = "That wish is too long, please keep it under 1000 characters."
	MsgAdminOnly        = "Only the organizer can do that."
	MsgConfirmDraw      = "Run Secret Santa?"
	MsgDrawPostponed    = "Santa will wait for now"
	MsgNoDrawPending    = "There is no draw waiting for confirmation. Press \"Run draw\" first."
	MsgAlreadyDrawn     = "The draw has already been held!"
	MsgDrawInProgress   = "The draw is already running, hold on."
	MsgLettersSent      = "Letters sent!"
	MsgTooFewRegistered = "Fewer than 2 users are registered, the draw is impossible!"
	MsgPartialDelivery  = "The draw is done, but some letters could not be delivered: %d of %d failed. Participants without a letter: %s"
	MsgUserData         = "Your data:\n Name: %s\n Wish: %s"
	MsgUserNotFound     = "User not found in the database! ID: %d name: %s operation: %s"
	MsgNewRegistration  = "New participant registered: %s (%s)"
)
