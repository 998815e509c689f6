package content

import "testing"

func TestSynthesize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Recuérdame llamar a mamá mañana a las 5pm", want: "Llamar a mamá"},
		{in: "por favor que necesito comprar leche para mi casa", want: "Comprar leche de casa"},
		{in: "Junta con Ana en la oficina", want: "Junta con ana oficina"},
		{in: "agendar revisión 2025-06-01 9:30 am", want: "Revisión"},
		{in: "pagar la luz el viernes 15/03", want: "Pagar la luz el"},
		{in: "llamar al banco pasado mañana de la tarde", want: "Llamar al banco"},
		{in: "revisar correos los próximos 3 días", want: "Revisar correos los"},
		{in: "  ", want: ""},
		{in: "mañana", want: "mañana"},
		{in: "Mañana quiero comer", want: "Comer"},
	}
	for _, tc := range cases {
		if got := Synthesize(tc.in); got != tc.want {
			t.Fatalf("Synthesize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSynthesizeIdempotent(t *testing.T) {
	inputs := []string{
		"Recuérdame llamar a mamá mañana a las 5pm",
		"Mañana quiero comer",
		"agenda que haz una cita con el dentista el 3 de mayo",
		"Hoy",
		"Necesito agregar: junta, ventas.",
		"por favor porfa recordar sacar la basura a las 21:00",
	}
	for _, in := range inputs {
		once := Synthesize(in)
		twice := Synthesize(once)
		if once != twice {
			t.Fatalf("Synthesize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
