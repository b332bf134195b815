// Package logger wraps zap with a global sugared console logger and
// context helpers (ToContext/FromContext/WithName/WithKV).
//
// Every pipeline step receives a context and logs through it, so a target's
// platform, arch and stage directory travel with each message.
package logger
