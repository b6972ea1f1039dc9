package urls

// All URLs point to the documentation site at https://muurk.github.io/skylog/

// GettingStarted walks through signing in and logging a first flight.
const GettingStarted = "https://muurk.github.io/skylog/getting-started/"

// SignIn explains magic links and where the session is kept.
const SignIn = "https://muurk.github.io/skylog/guide/sign-in/"

// Configuration documents every key in config.yaml.
const Configuration = "https://muurk.github.io/skylog/reference/configuration/"

// Discovery covers `serve --advertise`, `discover` and mDNS firewall rules.
const Discovery = "https://muurk.github.io/skylog/guide/discovery/"
