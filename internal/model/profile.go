package model

// Text is a free-form profile value. Numbers and other JSON literals are kept
// as their literal text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	s, err := jsonText(data)
	if err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

// UpdateProfileRequest lists every field a user may change about themself.
type UpdateProfileRequest struct {
	FullName                 Optional[Text]        `json:"full_name"`
	Phone                    Optional[Text]        `json:"phone"`
	Gender                   Optional[Text]        `json:"gender"`
	Address                  Optional[Text]        `json:"address"`
	DateOfBirth              Optional[Text]        `json:"date_of_birth"`
	BloodGroup               Optional[Text]        `json:"blood_group"`
	Height                   Optional[Measurement] `json:"height"`
	Weight                   Optional[Measurement] `json:"weight"`
	EmergencyContact         Optional[Text]        `json:"emergency_contact"`
	EmergencyContactName     Optional[Text]        `json:"emergency_contact_name"`
	EmergencyContactRelation Optional[Text]        `json:"emergency_contact_relation"`
	Allergies                Optional[StringList]  `json:"allergies"`
	ChronicConditions        Optional[StringList]  `json:"chronic_conditions"`
	CurrentMedications       Optional[StringList]  `json:"current_medications"`
}

// Apply copies the present fields onto u and reports whether anything was
// supplied. A blank full_name is ignored; a null list becomes empty.
func (r *UpdateProfileRequest) Apply(u *User) bool {
	applied := false

	if r.FullName.Set && r.FullName.Value != nil && *r.FullName.Value != "" {
		u.FullName = string(*r.FullName.Value)
		applied = true
	}

	scalars := []struct {
		in  Optional[Text]
		out **string
	}{
		{r.Phone, &u.Phone},
		{r.Gender, &u.Gender},
		{r.Address, &u.Address},
		{r.DateOfBirth, &u.DateOfBirth},
		{r.BloodGroup, &u.BloodGroup},
		{r.EmergencyContact, &u.EmergencyContact},
		{r.EmergencyContactName, &u.EmergencyContactName},
		{r.EmergencyContactRelation, &u.EmergencyContactRelation},
	}
	for _, f := range scalars {
		if !f.in.Set {
			continue
		}
		if f.in.Value == nil {
			*f.out = nil
		} else {
			v := string(*f.in.Value)
			*f.out = &v
		}
		applied = true
	}

	if r.Height.Set {
		u.Height = r.Height.Value
		applied = true
	}
	if r.Weight.Set {
		u.Weight = r.Weight.Value
		applied = true
	}

	lists := []struct {
		in  Optional[StringList]
		out *StringList
	}{
		{r.Allergies, &u.Allergies},
		{r.ChronicConditions, &u.ChronicConditions},
		{r.CurrentMedications, &u.CurrentMedications},
	}
	for _, f := range lists {
		if !f.in.Set {
			continue
		}
		if f.in.Value == nil || *f.in.Value == nil {
			*f.out = StringList{}
		} else {
			*f.out = *f.in.Value
		}
		applied = true
	}

	return applied
}
