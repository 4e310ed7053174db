package agent

const (
	replyReserve             = "Sure, I can help you book a reservation. Let me find the best matching restaurant first."
	replyReject              = "Okay, I've cancelled that. Let me know if you'd like to search for something else."
	replySelect              = "Great choice. Shall I go ahead and reserve a table there?"
	replyChooseRestaurant    = "Which of these restaurants would you like to book?"
	replyProceed             = "Perfect, I'll proceed with your reservation."
	replyProceedNamedPattern = "Perfect, I'll proceed with your reservation under the name %s."
)
