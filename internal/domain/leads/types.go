package leads

// Status is the sales-funnel stage of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusResponded Status = "responded"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
	StatusInvalid   Status = "invalid"
)

// Source is the acquisition channel a lead came in through.
type Source string

const (
	SourceFacebook  Source = "facebook"
	SourceInstagram Source = "instagram"
	SourceWalkIn    Source = "walk-in"
	SourceReferral  Source = "referral"
	SourceEmail     Source = "email"
	SourceWebsite   Source = "website"
	SourcePhone     Source = "phone"
	SourceManual    Source = "manual"
	SourceUnknown   Source = "unknown"
)

// Channel is the medium a single message travelled over.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

// SenderRole says which side of the conversation produced a message.
type SenderRole string

const (
	SenderAgent SenderRole = "agent"
	SenderLead  SenderRole = "lead"
)

// DeliveryStatus is the optional delivery state of an outbound message.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
)
