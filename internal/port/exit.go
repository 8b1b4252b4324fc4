package port

// ExitInterrupted is the exit code ffmpeg reports when it shuts down in
// response to a termination signal. A recording that ends this way was
// stopped on purpose, not broken.
const ExitInterrupted = 255
