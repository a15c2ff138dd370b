package hub

const (
	ServerModified = "ServerModified"
	ServerDeleted  = "ServerDeleted"

	ChannelCreated    = "ChannelCreated"
	ChannelModified   = "ChannelModified"
	ChannelDeleted    = "ChannelDeleted"
	ChannelsReordered = "ChannelsReordered"

	MessageCreated  = "MessageCreated"
	MessageModified = "MessageModified"
	MessageDeleted  = "MessageDeleted"

	MemberJoined  = "MemberJoined"
	MemberLeft    = "MemberLeft"
	MemberRemoved = "MemberRemoved"
)

// topic prefixes, a full topic is "<type>:<id>"
const (
	ChannelTypeChannel    = "channel"
	ChannelTypeServer     = "server"
	ChannelTypeServerList = "server_list"
)
