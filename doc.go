// Package authflow implements the form state shared by the sign in, sign up
// and forgot password screens: field validation, the submission lifecycle
// and the effects applied when an attempt resolves.
//
// Validation:
//   - Validator checks a fixed schema of fields and returns one ErrorCode per
//     failing field (REQUIRED, INVALID_EMAIL, INVALID_AGE). Codes are never
//     localized here; pair MessageKey with a Translator when rendering.
//
// Submission lifecycle:
//   - SubmissionController moves Idle -> Submitting -> Succeeded|Failed and
//     rejects a second attempt while one is pending.
//   - FormSession keeps values, errors and the submitFailed flag for one
//     mounted form. Errors are computed on every change but surfaced only after
//     the first submit attempt. Rendering layers pull Snapshot and Subscribe
//     for changes instead of receiving per field callbacks.
//
// Screens:
//   - Screen binds a session to the auth call and the notification or
//     navigation effect of each screen. Collaborators are passed explicitly
//     through Dependencies, so every screen can be tested in isolation.
//   - Closing a screen while its auth call is pending is safe: the late
//     outcome is discarded and no effect is applied.
//
// Activity sinks:
//   - ActivitySink receives form events (attempts, validation failures,
//     outcomes, navigation). Sinks run best-effort (errors are logged); the
//     metrics package ships a Prometheus implementation.
package authflow
