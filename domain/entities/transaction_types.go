package entities

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionTypeTransferIn        TransactionType = "transfer_in"
	TransactionTypeTransferOut       TransactionType = "transfer_out"
	TransactionTypeDaily             TransactionType = "daily"
	TransactionTypeActivityPayout    TransactionType = "activity_payout"
	TransactionTypeAdmin             TransactionType = "admin"
	TransactionTypeViolationPayment  TransactionType = "violation_payment"
	TransactionTypeViolationReceived TransactionType = "violation_received"
	TransactionTypeStorePurchase     TransactionType = "store_purchase"
	TransactionTypeEffectPurchase    TransactionType = "effect_purchase"
	TransactionTypeGambleCredit      TransactionType = "gamble_credit"
	TransactionTypeBlackjackBet      TransactionType = "blackjack_bet"
	TransactionTypeBlackjackPayout   TransactionType = "blackjack_payout"
	TransactionTypeBlackjackRefund   TransactionType = "blackjack_refund"
)
