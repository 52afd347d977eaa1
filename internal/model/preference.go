package model

// Well-known preference keys.  Preferences are an opaque per-user
// key→value map created lazily on first write; these constants name
// the keys the booking engine reads when assembling a server create
// request or remembering a user's last choices.
const (
    PrefServerPassword     = "server_password"
    PrefServerRconPassword = "server_rcon_password"
    PrefServerValveSdr     = "server_tf2_sdr_mode"
    PrefServerHostname     = "server_hostname"
    PrefServerTvName       = "server_source_tv_name"
    PrefServerMap          = "server_map"
    PrefServerGitRepo      = "server_git_repository"
    PrefServerGitKey       = "server_git_deploy_key"
    PrefBookingRegion      = "booking_region"
)
