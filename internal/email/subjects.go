package email

const (
	subjectFollowUp    = "Follow-up: Let's schedule a quick call"
	subjectProposalFmt = "%s Automation Proposal"
	subjectProposalAlt = "Your Automation Proposal"
)
