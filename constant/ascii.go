package constant

// AsciiArtLogo is the application's banner shown in the root help.
const AsciiArtLogo = `
     _                _        _
 ___| |__   ___  _ __| |_ _ __| | __ _ _   _
/ __| '_ \ / _ \| '__| __| '_ \ |/ _` + "`" + ` | | | |
\__ \ | | | (_) | |  | |_| |_) | | (_| | |_| |
|___/_| |_|\___/|_|   \__| .__/|_|\__,_|\__, |
                         |_|            |___/`
