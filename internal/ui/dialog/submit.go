package dialog

import "context"

// Submit drives one submission: Begin, run the mutation, then Succeed or
// Fail. The submitting state never outlives the call.
func Submit[F any](ctx context.Context, d *Dialog[F], mutate func(context.Context, F) error, onSuccess Outcome, failure func(error) string) (Outcome, error) {
	if err := d.Begin(); err != nil {
		return Outcome{}, err
	}
	if err := mutate(ctx, d.form); err != nil {
		out, _ := d.Fail(failure(err))
		return out, err
	}
	out, _ := d.Succeed(onSuccess.Toast, onSuccess.Refresh)
	return out, nil
}
