package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail          = "email"
	fieldFriends        = "friends"
	fieldTotalReferrals = "total_referrals"
	fieldReferralsScore = "referrals_score"
	fieldTermsAccepted  = "terms_accepted"
	fieldCompanyEmail   = "company_email"
	fieldNameKey        = "name_key"
	fieldDiscount       = "discount"
	fieldHashtags       = "hashtags"
	fieldPostImage      = "post_image"
	fieldToken          = "token"
	fieldUsed           = "used"
	fieldID             = "id"
	fieldCompanyName    = "company_name"
	fieldStepName       = "step_name"
)

// GSI names.
const (
	indexUsersByCompany = "company_email-index"
	indexCompanyByName  = "name_key-index"
	indexLinksByStep    = "company_name-step_name-index"
)
